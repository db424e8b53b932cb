package zwcc

import "testing"

func TestRegistryLooksUpKnownClasses(t *testing.T) {
	for _, classID := range []uint8{ClassVersion, ClassMeter, ClassBinarySwitch, ClassWakeUp, ClassThermostatSetpoint} {
		if !Registered(classID) {
			t.Fatalf("expected class 0x%02x to be registered", classID)
		}
		cc, ok := New(classID)
		if !ok || cc == nil {
			t.Fatalf("expected New to construct class 0x%02x", classID)
		}
		if cc.ClassID() != classID {
			t.Fatalf("expected ClassID() to return 0x%02x, got 0x%02x", classID, cc.ClassID())
		}
		if cc.Version() != 1 {
			t.Fatalf("expected default version 1, got %d", cc.Version())
		}
	}
}

func TestRegistryUnknownClass(t *testing.T) {
	if Registered(0xfe) {
		t.Fatalf("did not expect class 0xfe to be registered")
	}
	if _, ok := New(0xfe); ok {
		t.Fatalf("expected New to fail for an unregistered class")
	}
}

func TestNewInstancesAreIndependent(t *testing.T) {
	a, _ := New(ClassMeter)
	b, _ := New(ClassMeter)
	a.SetVersion(4)
	if b.Version() == 4 {
		t.Fatalf("expected separate class instances per New() call")
	}
}
