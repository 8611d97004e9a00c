package catalog

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/skyfoundry/mount-commander/model"
)

// LoadSummary reports what a Load call put into the store. Mainly useful for
// logging from main().
type LoadSummary struct {
	Names []string
}

// internal JSON shapes - kept unexported so the file format can evolve.
type catalogJSON struct {
	Objects []catalogObjectJSON `json:"objects"`
}

type catalogObjectJSON struct {
	Name       string  `json:"name"`
	Type       string  `json:"type"` // "star" | "planet" | "moon" | "sun" | "satellite" | "deepsky"
	Magnitude  float64 `json:"magnitude"`
	RAHours    float64 `json:"ra_hours"`
	DecDegrees float64 `json:"dec_degrees"`
}

// Load reads a JSON catalog from r into the store and returns a summary of
// what was loaded. It fails on JSON or structural errors and on coordinates
// outside their domain; duplicate names fail the same way direct Add calls
// do.
func Load(store *Store, r io.Reader) (*LoadSummary, error) {
	if store == nil {
		return nil, fmt.Errorf("catalog.Load: store is nil")
	}

	var payload catalogJSON
	dec := json.NewDecoder(r)
	if err := dec.Decode(&payload); err != nil {
		return nil, fmt.Errorf("catalog.Load: decode failed: %w", err)
	}

	summary := &LoadSummary{Names: make([]string, 0, len(payload.Objects))}
	for _, js := range payload.Objects {
		if js.Name == "" {
			return nil, fmt.Errorf("catalog.Load: object with empty name")
		}
		objType, err := typeFromString(js.Type)
		if err != nil {
			return nil, fmt.Errorf("catalog.Load: %q: %w", js.Name, err)
		}
		pos, err := model.NewEquatorial(js.RAHours, js.DecDegrees)
		if err != nil {
			return nil, fmt.Errorf("catalog.Load: %q: %w", js.Name, err)
		}
		obj := model.CatalogObject{
			Name:      js.Name,
			Type:      objType,
			Magnitude: js.Magnitude,
			Position:  pos,
		}
		if err := store.Add(obj); err != nil {
			return nil, fmt.Errorf("catalog.Load: %w", err)
		}
		summary.Names = append(summary.Names, js.Name)
	}
	return summary, nil
}

// LoadFile is Load over a file path.
func LoadFile(store *Store, path string) (*LoadSummary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("catalog.LoadFile: %w", err)
	}
	defer f.Close()
	return Load(store, f)
}

func typeFromString(s string) (model.ObjectType, error) {
	switch model.ObjectType(s) {
	case model.ObjectStar, model.ObjectPlanet, model.ObjectMoon,
		model.ObjectSun, model.ObjectSatellite, model.ObjectDeepSky:
		return model.ObjectType(s), nil
	default:
		return "", fmt.Errorf("unknown object type %q", s)
	}
}
