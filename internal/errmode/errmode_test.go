package errmode

import (
	"strings"
	"testing"
)

func isMultilineBody(t *testing.T, body string) bool {
	t.Helper()
	s := New()
	completed := false
	for _, line := range strings.Split(body, "\n") {
		if completed {
			t.Fatalf("trace completed before last line, still saw %q", line)
		}
		if s.Parse(line) == CompletedTraceBack {
			completed = true
		}
	}
	return completed
}

func TestPythonTraceback(t *testing.T) {
	if !isMultilineBody(t, `
Traceback (most recent call last):
  File "test.py", line 5, in <module>
    test()
  File "test.py", line 2, in test
    raise RuntimeError("oops")
RuntimeError: oops
`) {
		t.Fatal("expected the traceback to complete")
	}
	if !isMultilineBody(t, `
2025-07-07 - Traceback (most recent call last):
2025-07-07 -   File "test.py", line 7, in <module>
2025-07-07 -     raise RuntimeError("bam")
2025-07-07 - RuntimeError: bam
`) {
		t.Fatal("expected the prefixed traceback to complete")
	}
}

func TestGoStacktrace(t *testing.T) {
	if !isMultilineBody(t, `
panic: runtime error: invalid memory address or nil pointer dereference
[signal SIGSEGV: segmentation violation code=0x1 addr=0x0 pc=0x47b081]

goroutine 1 [running]:
main.main()
	test.go:14 +0x61
exit status 2
`) {
		t.Fatal("expected the go stacktrace to complete")
	}
}

func TestIsErrorLine(t *testing.T) {
	positives := []string{
		`ERROR 2002 (HY000): Can't connect to server on '127.0.0.1' (115)`,
		`2025-07-07T21:21:52Z   Warning   Failed                  Pod                     logserver-0                           Error: ImagePullBackOff`,
		`2025-07-07T17:03:05.595305798-04:00 stderr F time="2025-07-07T21:03:05Z" level=warning msg="an error was encountered `,
		`2025-07-07T17:09:04.148248939-04:00 stderr F E0707 21:09:04.148229       1 queueinformer_`,
		`2025-07-07T17:09:26.167025939-04:00 stderr F time="2025-07-07T21:09:26Z" level=info msg="error updating `,
		`2025-07-07T17:02:55.673388956-04:00 stderr F time="2025-07-07T21:02:55Z" level=warning msg="error adding`,
		`2025-07-07T17:02:55.753817892-04:00 stderr F {"level":"error","ts"`,
		`{2} neutron.tests.unit.agent.test_plug_with_ns [0.034190s] ... FAILED`,
		`E4242 oops`,
		`test.go] E4242 bam`,
		`13 ERROR neutron`,
		`Z  ERROR  setup`,
		"Z\tERROR\ttest",
		`fail level=error`,
		`ovsdb_log(log_fsync3)|WARN|fsync failed (Invalid argument)`,
		`BGP: [KTE2S-GTBDA][EC 100663301] INTERFACE_ADDRESS_DEL: Cannot find IF`,
		`controller | controller-0 | FAILED | rc=2 >>`,
	}
	for _, line := range positives {
		if !IsErrorLine(line) {
			t.Errorf("%q: expected an error match", line)
		}
	}

	negatives := []string{"2025-07-07 - Running a script"}
	for _, line := range negatives {
		if IsErrorLine(line) {
			t.Errorf("%q: expected no error match", line)
		}
	}
}

func TestStateTransitionsToNoErrorOnBadPanic(t *testing.T) {
	s := New()
	if r := s.Parse("panic: boom"); r != NeedMore {
		t.Fatalf("expected NeedMore after panic line, got %v", r)
	}
	if r := s.Parse("not a signal or blank line"); r != NoError {
		t.Fatalf("expected the bad header to fall back to NoError, got %v", r)
	}
}
