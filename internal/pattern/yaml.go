package pattern

import (
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML signal-table override from disk and merges it over
// the built-in defaults. Only groups present in the file are replaced; absent
// groups keep their default phrase lists, so an override file can tune a
// single technique without restating the whole table.
func LoadFile(path string) (*Library, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("pattern: open %q: %w", path, err)
	}
	defer f.Close()

	lib, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("pattern: parse %q: %w", path, err)
	}
	return lib, nil
}

// LoadReader parses a YAML override from r and merges it over Default().
func LoadReader(r io.Reader) (*Library, error) {
	var override Library
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true) // reject unknown keys to catch typos
	if err := dec.Decode(&override); err != nil {
		return nil, fmt.Errorf("decode pattern yaml: %w", err)
	}

	lib := Default()
	merge(lib, &override)
	return lib, nil
}

func merge(dst, src *Library) {
	for _, pair := range []struct{ d, s *[]string }{
		{&dst.ConcessionAcknowledgments, &src.ConcessionAcknowledgments},
		{&dst.ConcessionPivots, &src.ConcessionPivots},
		{&dst.CitationPhrases, &src.CitationPhrases},
		{&dst.Authorities, &src.Authorities},
		{&dst.ZingerPunchlines, &src.ZingerPunchlines},
		{&dst.ZingerContrasts, &src.ZingerContrasts},
		{&dst.ReframePhrases, &src.ReframePhrases},
		{&dst.ReframeContrasts, &src.ReframeContrasts},
		{&dst.PreemptionPhrases, &src.PreemptionPhrases},
		{&dst.PreemptionRebuttals, &src.PreemptionRebuttals},
		{&dst.QuestionChallenges, &src.QuestionChallenges},
		{&dst.QuestionIntensifiers, &src.QuestionIntensifiers},
		{&dst.StoryOpeners, &src.StoryOpeners},
		{&dst.StoryTimeMarkers, &src.StoryTimeMarkers},
		{&dst.OrdinalTriad, &src.OrdinalTriad},
		{&dst.PerorationClimaxes, &src.PerorationClimaxes},
		{&dst.PerorationAppeals, &src.PerorationAppeals},
		{&dst.PerorationCalls, &src.PerorationCalls},
		{&dst.GallopConnectives, &src.GallopConnectives},
		{&dst.InterruptionMarkers, &src.InterruptionMarkers},
	} {
		if len(*pair.s) > 0 {
			*pair.d = *pair.s
		}
	}
}
