package model

import (
	"errors"
	"testing"
)

func TestNewEquatorialRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name string
		ra   float64
		dec  float64
	}{
		{"ra negative", -0.1, 0},
		{"ra at 24", 24, 0},
		{"ra above 24", 25.5, 45},
		{"dec below -90", 12, -90.1},
		{"dec above 90", 12, 91},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := NewEquatorial(tc.ra, tc.dec); !errors.Is(err, ErrInvalidCoordinate) {
				t.Fatalf("NewEquatorial(%v, %v): got %v, want ErrInvalidCoordinate", tc.ra, tc.dec, err)
			}
		})
	}
}

func TestNewEquatorialAcceptsBoundary(t *testing.T) {
	if _, err := NewEquatorial(0, -90); err != nil {
		t.Fatalf("NewEquatorial(0,-90): %v", err)
	}
	if _, err := NewEquatorial(23.999, 90); err != nil {
		t.Fatalf("NewEquatorial(23.999,90): %v", err)
	}
}

func TestNewHorizontalRejectsOutOfRange(t *testing.T) {
	if _, err := NewHorizontal(360, 0); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("azimuth 360 accepted: %v", err)
	}
	if _, err := NewHorizontal(-1, 0); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("azimuth -1 accepted: %v", err)
	}
	if _, err := NewHorizontal(180, 90.5); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("altitude 90.5 accepted: %v", err)
	}
}

func TestNewGeoLocation(t *testing.T) {
	if _, err := NewGeoLocation(40, -105); err != nil {
		t.Fatalf("valid location rejected: %v", err)
	}
	if _, err := NewGeoLocation(91, 0); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("latitude 91 accepted")
	}
	if _, err := NewGeoLocation(0, 181); !errors.Is(err, ErrInvalidCoordinate) {
		t.Fatalf("longitude 181 accepted")
	}
}

func TestDirectionAxis(t *testing.T) {
	if AzimuthPositive.Axis() != AxisAzimuth || AzimuthNegative.Axis() != AxisAzimuth {
		t.Fatalf("azimuth directions should map to the azimuth axis")
	}
	if AltitudePositive.Axis() != AxisAltitude || AltitudeNegative.Axis() != AxisAltitude {
		t.Fatalf("altitude directions should map to the altitude axis")
	}
	if !AltitudePositive.Positive() || AzimuthNegative.Positive() {
		t.Fatalf("direction sign mapping wrong")
	}
}

func TestConnectionConfigVariants(t *testing.T) {
	serial, err := NewSerialConfig("/dev/ttyUSB0", 0)
	if err != nil {
		t.Fatalf("NewSerialConfig: %v", err)
	}
	if serial.Kind != TransportSerial || serial.BaudRate != DefaultBaudRate {
		t.Fatalf("serial defaults not applied: %+v", serial)
	}

	tcp, err := NewTCPConfig("mount.local", 2000)
	if err != nil {
		t.Fatalf("NewTCPConfig: %v", err)
	}
	if tcp.Kind != TransportTCP || tcp.Address() != "mount.local:2000" {
		t.Fatalf("tcp config wrong: %+v", tcp)
	}

	if _, err := NewSerialConfig("", 9600); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("empty serial port accepted")
	}
	if _, err := NewTCPConfig("host", 0); !errors.Is(err, ErrInvalidConfig) {
		t.Fatalf("port 0 accepted")
	}
}
