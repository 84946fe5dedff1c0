package indexname

import "testing"

func assertIndex(t *testing.T, path, want string) {
	t.Helper()
	got := FromPath(path)
	if got != want {
		t.Fatalf("FromPath(%q) = %q, want %q", path, got, want)
	}
}

func TestIsHexadecimal(t *testing.T) {
	if !isHexadecimal("015da2b") {
		t.Fatal("expected 015da2b to be hexadecimal")
	}
	if isHexadecimal("abcda2z") {
		t.Fatal("expected abcda2z to not be hexadecimal")
	}
	assertIndex(t, "config-update/015da2b/job-output.json.gz", "config-update/job-output.json")
}

func TestGetParentName(t *testing.T) {
	if name, ok := getParentName("titi/current/log"); !ok || name != "titi" {
		t.Fatalf("getParentName(titi/current/log) = %q %v", name, ok)
	}
	if name, ok := getParentName("galera/logs/service.txt"); !ok || name != "galera" {
		t.Fatalf("getParentName(galera/logs/service.txt) = %q %v", name, ok)
	}
	if _, ok := getParentName("log"); ok {
		t.Fatal("expected no parent for a bare filename")
	}
}

func TestRemoveUID(t *testing.T) {
	got := removeUID("6339eec3cA2d6a0e36787b10daa5c6513b6ec79933804bd9dcb4c3b59bvwstc")
	if got != "UID" {
		t.Fatalf("removeUID = %q, want UID", got)
	}
}

func TestRemoveNonVowelComponent(t *testing.T) {
	got := removeNonVowelComponent("test-fdskl-test")
	if got != "test-test" {
		t.Fatalf("removeNonVowelComponent = %q, want test-test", got)
	}
}

func TestLogModelName(t *testing.T) {
	cases := []struct {
		want  string
		paths []string
	}{
		{"qemu/instance", []string{
			"containers/libvirt/qemu/instance-0000001d.log.txt.gz",
			"libvirt/qemu/instance-000000ec.log.txt.gz",
		}},
		{"builds/log", []string{"builds/2/log", "builds/42/log"}},
		{"audit/audit.log", []string{"audit/audit.log", "audit/audit.log.1"}},
		{"zuul/merger.log", []string{"zuul/merger.log", "zuul/merger.log.2017-11-12"}},
		{"pod/UID", []string{
			"pod/6339eec3ca2d6a0e36787b10daa5c6513b6ec79933804bd9dcb4c3b59bvwstc.txt",
			"pod/6339eec3cA2d6a0e36787b10daa5c6513b6ec79933804bd9dcb4c3b59bvwstc.txt",
		}},
		{"ironic/app.log", []string{"ironic/app.log.txt.gz", "ironic/app.log.1.gz"}},
	}
	for _, c := range cases {
		for _, p := range c.paths {
			assertIndex(t, p, c.want)
		}
	}
}

func TestIndex00(t *testing.T) {
	assertIndex(t, "swift-proxy-5b4bcb6699-hk9lb.log", "swift-proxy-log")
}

func TestIndex01(t *testing.T) {
	assertIndex(t, "rabbitmq-server-0/logs/rabbitmq-server-0.log", "rabbitmq-server/rabbitmq-server-log")
}

func TestIndex02(t *testing.T) {
	assertIndex(t,
		"pods/openstack_openstack-galera-0_a720a2da-7235-461d-95c2-19518e90cd33/galera/0.log",
		"galera/log")
}

func TestIndex03(t *testing.T) {
	assertIndex(t,
		"openstack_rabbitmq-server-0_b4fbdf24-cd9a-4572-8321-6dbd90356745/rabbitmq/0.log",
		"rabbitmq/log")
}

func TestIndex04(t *testing.T) {
	assertIndex(t, "dummy-42-image-722e550664244ca5959a61f6dd950b9a.log", "dummy-image-log")
}
