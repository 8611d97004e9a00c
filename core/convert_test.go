package core

import (
	"errors"
	"math"
	"testing"

	"github.com/skyfoundry/mount-commander/model"
)

// circularDiffDegrees measures the shortest angular distance between two
// values on a 360° circle, so wrap-around round trips (359.999 → 0.0) are
// judged fairly.
func circularDiffDegrees(a, b float64) float64 {
	d := math.Abs(a - b)
	if d > 180 {
		d = 360 - d
	}
	return d
}

func TestRARoundTripStandard(t *testing.T) {
	quant := PrecisionStandard.QuantizationDegrees()
	for ra := 0.0; ra < 24.0; ra += 0.124 {
		counts, err := EncodeRAHours(ra, PrecisionStandard)
		if err != nil {
			t.Fatalf("EncodeRAHours(%v): %v", ra, err)
		}
		back, err := DecodeRAHours(counts, PrecisionStandard)
		if err != nil {
			t.Fatalf("DecodeRAHours(%d): %v", counts, err)
		}
		if diff := circularDiffDegrees(ra*15, back*15); diff > quant {
			t.Fatalf("standard round trip for RA %vh drifted %v°, want ≤ %v°", ra, diff, quant)
		}
	}
}

func TestRARoundTripPrecise(t *testing.T) {
	quant := PrecisionPrecise.QuantizationDegrees()
	if quant > 1e-6 {
		t.Fatalf("precise quantization %v° exceeds documented 1e-6°", quant)
	}
	for ra := 0.0; ra < 24.0; ra += 0.517 {
		counts, err := EncodeRAHours(ra, PrecisionPrecise)
		if err != nil {
			t.Fatalf("EncodeRAHours(%v): %v", ra, err)
		}
		back, err := DecodeRAHours(counts, PrecisionPrecise)
		if err != nil {
			t.Fatalf("DecodeRAHours(%d): %v", counts, err)
		}
		if diff := circularDiffDegrees(ra*15, back*15); diff > 1e-6 {
			t.Fatalf("precise round trip for RA %vh drifted %v°", ra, diff)
		}
	}
}

func TestStandardQuantizationBound(t *testing.T) {
	if q := PrecisionStandard.QuantizationDegrees(); q > 0.006 {
		t.Fatalf("standard quantization %v° exceeds documented 0.006°", q)
	}
}

func TestSignedRoundTrip(t *testing.T) {
	for _, p := range []Precision{PrecisionStandard, PrecisionPrecise} {
		quant := p.QuantizationDegrees()
		for deg := -90.0; deg <= 90.0; deg += 3.7 {
			counts, err := EncodeSignedDegrees(deg, p)
			if err != nil {
				t.Fatalf("EncodeSignedDegrees(%v, %s): %v", deg, p, err)
			}
			back, err := DecodeSignedDegrees(counts, p)
			if err != nil {
				t.Fatalf("DecodeSignedDegrees(%d, %s): %v", counts, p, err)
			}
			if diff := math.Abs(back - deg); diff > quant {
				t.Fatalf("%s signed round trip for %v° drifted %v°", p, deg, diff)
			}
		}
	}
}

func TestSignedWrapRecovery(t *testing.T) {
	// -20° travels as 340° on the wire; decode must recover the sign.
	counts, err := EncodeSignedDegrees(-20, PrecisionStandard)
	if err != nil {
		t.Fatalf("EncodeSignedDegrees(-20): %v", err)
	}
	unsigned, err := DecodeDegrees(counts, PrecisionStandard)
	if err != nil {
		t.Fatalf("DecodeDegrees: %v", err)
	}
	if unsigned < 339 || unsigned > 341 {
		t.Fatalf("wire form of -20° should be near 340°, got %v", unsigned)
	}
	signed, err := DecodeSignedDegrees(counts, PrecisionStandard)
	if err != nil {
		t.Fatalf("DecodeSignedDegrees: %v", err)
	}
	if signed > -19.9 || signed < -20.1 {
		t.Fatalf("signed recovery of -20° gave %v", signed)
	}
}

func TestEncodeRejectsOutOfDomain(t *testing.T) {
	cases := []struct {
		name string
		enc  func() error
	}{
		{"ra 24h", func() error { _, err := EncodeRAHours(24, PrecisionStandard); return err }},
		{"ra negative", func() error { _, err := EncodeRAHours(-1, PrecisionPrecise); return err }},
		{"ra NaN", func() error { _, err := EncodeRAHours(math.NaN(), PrecisionStandard); return err }},
		{"degrees 360", func() error { _, err := EncodeDegrees(360, PrecisionStandard); return err }},
		{"degrees negative", func() error { _, err := EncodeDegrees(-0.5, PrecisionPrecise); return err }},
		{"signed 90.1", func() error { _, err := EncodeSignedDegrees(90.1, PrecisionStandard); return err }},
		{"signed -91", func() error { _, err := EncodeSignedDegrees(-91, PrecisionPrecise); return err }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := tc.enc(); !errors.Is(err, model.ErrInvalidCoordinate) {
				t.Fatalf("got %v, want ErrInvalidCoordinate", err)
			}
		})
	}
}

func TestDecodeRejectsOverflowCounts(t *testing.T) {
	if _, err := DecodeDegrees(1<<16, PrecisionStandard); !errors.Is(err, ErrEncodingOverflow) {
		t.Fatalf("counts beyond 16-bit range accepted in standard mode: %v", err)
	}
}

func TestWrapAtFullRevolution(t *testing.T) {
	// An RA just shy of 24h rounds onto the full-revolution count, which
	// must wrap to zero rather than overflow.
	counts, err := EncodeRAHours(23.99999, PrecisionStandard)
	if err != nil {
		t.Fatalf("EncodeRAHours(23.99999): %v", err)
	}
	if counts != 0 {
		t.Fatalf("expected wrap to 0 counts, got %d", counts)
	}
}
