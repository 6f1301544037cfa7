package enclosure

import "fmt"

// fakeDriver is a memory-backed fsdriver.Driver for tests: fsdriver.Driver
// is kept small and interface-shaped specifically so it can be faked.
type fakeDriver struct {
	existing map[string]bool
	mounts   []string
}

func newFakeDriver(existing ...string) *fakeDriver {
	m := map[string]bool{}
	for _, e := range existing {
		m[e] = true
	}
	return &fakeDriver{existing: m}
}

func (f *fakeDriver) FullyExpandPath(p string) (string, error)     { return p, nil }
func (f *fakeDriver) MaybeResolveSymlink(p string) (string, error) { return p, nil }
func (f *fakeDriver) Touch(p string) error                         { f.existing[p] = true; return nil }
func (f *fakeDriver) TouchDir(p string) error                      { f.existing[p] = true; return nil }

func (f *fakeDriver) EnsureFile(p string) (bool, error) {
	if f.existing[p] {
		return false, nil
	}
	f.existing[p] = true
	return true, nil
}

func (f *fakeDriver) EnsureDirectory(p string) (bool, error) {
	if f.existing[p] {
		return false, nil
	}
	f.existing[p] = true
	return true, nil
}

func (f *fakeDriver) ContainerRoot(name string) string { return "/run/boxxy/" + name }
func (f *fakeDriver) SetupRoot(name string) error      { return nil }
func (f *fakeDriver) CleanupRoot(name string) error    { return nil }

func (f *fakeDriver) BindMountRW(src, dst string) error {
	f.mounts = append(f.mounts, fmt.Sprintf("%s->%s", src, dst))
	return nil
}

func (f *fakeDriver) RemountRO(p string) error { return nil }
