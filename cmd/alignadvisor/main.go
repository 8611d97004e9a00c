package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	"github.com/skyfoundry/mount-commander/align"
	"github.com/skyfoundry/mount-commander/catalog"
	"github.com/skyfoundry/mount-commander/core"
	"github.com/skyfoundry/mount-commander/internal/logging"
	"github.com/skyfoundry/mount-commander/internal/satview"
	"github.com/skyfoundry/mount-commander/model"
)

func main() {
	catalogPath := flag.String("catalog", "configs/catalog.json", "path to the JSON object catalog")
	tlePath := flag.String("tles", "", "optional path to a TLE file (name, line1, line2 per entry)")
	lat := flag.Float64("lat", 0, "observer latitude in degrees")
	lon := flag.Float64("lon", 0, "observer longitude in degrees")
	mode := flag.String("mode", "triple", "suggestion mode: triple (SkyAlign) or pair (two-star)")
	minAlt := flag.Float64("min-alt", 0, "minimum candidate altitude in degrees (0 uses the default)")
	maxResults := flag.Int("max", 0, "maximum suggestions to print (0 uses the default)")
	cloud := flag.Float64("cloud", 0, "cloud cover percent")
	seeing := flag.Float64("seeing", 0.5, "seeing score in [0,1]")
	moonIllum := flag.Float64("moon-illum", 0, "moon illumination percent")
	moonAz := flag.Float64("moon-az", 0, "moon azimuth in degrees")
	moonAlt := flag.Float64("moon-alt", -90, "moon altitude in degrees (below horizon by default)")
	flag.Parse()

	log := logging.NewFromEnv()
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	loc, err := model.NewGeoLocation(*lat, *lon)
	if err != nil {
		fatal(ctx, log, err)
	}

	store := catalog.NewStore()
	summary, err := catalog.LoadFile(store, *catalogPath)
	if err != nil {
		fatal(ctx, log, err)
	}
	log.Info(ctx, "catalog loaded",
		logging.String("path", *catalogPath), logging.Int("objects", len(summary.Names)))

	sats := satview.NewOracle(log)
	if *tlePath != "" {
		if err := loadTLEs(sats, *tlePath); err != nil {
			fatal(ctx, log, err)
		}
		log.Info(ctx, "TLEs loaded", logging.Int("satellites", len(sats.Names())))
	}

	conditions := staticConditions{cond: core.Conditions{
		CloudCoverPercent:       *cloud,
		MoonIlluminationPercent: *moonIllum,
		SeeingScore:             *seeing,
	}}
	if *moonAlt > -90 {
		conditions.cond.MoonPosition = &model.HorizontalCoordinates{
			AzimuthDegrees:  *moonAz,
			AltitudeDegrees: *moonAlt,
		}
	}

	advisor := align.NewAdvisor(store, routingOracle{sats: sats, fixed: align.NewCatalogOracle()}, conditions, align.Options{
		Selector: core.SelectorConfig{
			MinAltitudeDegrees: *minAlt,
			MaxResults:         *maxResults,
		},
		Logger: log,
	})

	now := time.Now()
	switch *mode {
	case "triple":
		groups, err := advisor.SuggestGroups(ctx, loc, now)
		if err != nil {
			fatal(ctx, log, err)
		}
		printGroups(groups)
	case "pair":
		pairs, err := advisor.SuggestPairs(ctx, loc, now)
		if err != nil {
			fatal(ctx, log, err)
		}
		printPairs(pairs)
	default:
		fatal(ctx, log, fmt.Errorf("unknown mode %q", *mode))
	}
}

// routingOracle sends satellite objects through the SGP4 oracle and
// everything else through the catalog projection.
type routingOracle struct {
	sats  *satview.Oracle
	fixed *align.CatalogOracle
}

func (r routingOracle) Observe(ctx context.Context, obj model.CatalogObject, loc model.GeoLocation, at time.Time) (align.Sighting, error) {
	if obj.Type == model.ObjectSatellite {
		return r.sats.Observe(ctx, obj, loc, at)
	}
	return r.fixed.Observe(ctx, obj, loc, at)
}

// staticConditions serves one fixed conditions snapshot built from flags.
type staticConditions struct {
	cond core.Conditions
}

func (s staticConditions) Current(context.Context, model.GeoLocation, time.Time) (core.Conditions, error) {
	return s.cond, nil
}

func printGroups(groups []core.AlignmentGroup) {
	if len(groups) == 0 {
		fmt.Println("no alignment triples available right now; try again later")
		return
	}
	for i, g := range groups {
		fmt.Printf("#%d  score %.3f  (sep %.3f, cond %.3f, obs %.3f)\n",
			i+1, g.Score, g.SeparationScore, g.ConditionsScore, g.ObservabilityScore)
		for _, c := range g.Candidates {
			fmt.Printf("    %s\n", c.Label)
		}
		fmt.Printf("    min separation %.1f, avg %.1f\n",
			g.MinSeparationDegrees, g.AvgSeparationDegrees)
	}
}

func printPairs(pairs []core.AlignmentPair) {
	if len(pairs) == 0 {
		fmt.Println("no alignment pairs available right now; try again later")
		return
	}
	for i, p := range pairs {
		fmt.Printf("#%d  score %.3f  separation %.1f\n", i+1, p.Score, p.SeparationDegrees)
		for _, c := range p.Candidates {
			fmt.Printf("    %s\n", c.Label)
		}
	}
}

// loadTLEs reads entries of three lines each: a name line, then the two
// element lines. Blank lines between entries are allowed.
func loadTLEs(oracle *satview.Oracle, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load TLEs: %w", err)
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("load TLEs: %w", err)
	}
	if len(lines)%3 != 0 {
		return fmt.Errorf("load TLEs: %s is not name/line1/line2 groups", path)
	}
	for i := 0; i < len(lines); i += 3 {
		name := strings.TrimSpace(lines[i])
		if err := oracle.AddTLE(name, lines[i+1], lines[i+2]); err != nil {
			return fmt.Errorf("load TLEs: %w", err)
		}
	}
	return nil
}

func fatal(ctx context.Context, log logging.Logger, err error) {
	log.Error(ctx, "alignadvisor failed", logging.Err(err))
	os.Exit(1)
}
