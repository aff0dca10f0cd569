package catalog

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/tkdojang/dojang-api/internal/domain"
)

//go:embed content/*.json schema/*.json
var catalogFS embed.FS

// Load-time errors. The catalogue ships inside the binary, so any of these
// is a packaging defect and the caller should refuse to start.
var (
	ErrEmptyBeltTable     = errors.New("belt table cannot be empty")
	ErrDuplicateBeltRank  = errors.New("duplicate belt rank")
	ErrUnknownBeltRank    = errors.New("unknown belt rank")
	ErrDuplicateItemID    = errors.New("duplicate item ID")
	ErrMoveCountMismatch  = errors.New("pattern move count does not match its moves")
)

type beltDocument struct {
	Belts []Belt `json:"belts"`
}

type terminologyDocument struct {
	Terminology []TerminologyEntry `json:"terminology"`
}

type patternDocument struct {
	Patterns []Pattern `json:"patterns"`
}

type sparringDocument struct {
	Sequences []StepSparringSequence `json:"sequences"`
}

// Load reads the embedded content documents, validates each against its
// embedded JSON Schema, checks the cross-document invariants (non-empty
// belt table, unique ranks, every tag resolving to a known belt, unique
// item IDs per kind) and returns the indexed catalogue.
func Load() (*Catalog, error) {
	return loadFrom(func(name string) ([]byte, error) {
		return catalogFS.ReadFile("content/" + name + ".json")
	})
}

// LoadDir reads the four content documents from dir and applies the same
// validation as Load, including the embedded schemas. Content authors run
// it through catalogctl before a content change ships.
func LoadDir(dir string) (*Catalog, error) {
	return loadFrom(func(name string) ([]byte, error) {
		return os.ReadFile(filepath.Join(dir, name+".json"))
	})
}

func loadFrom(read func(name string) ([]byte, error)) (*Catalog, error) {
	var beltDoc beltDocument
	if err := loadDocument(read, "belts", &beltDoc); err != nil {
		return nil, err
	}

	var termDoc terminologyDocument
	if err := loadDocument(read, "terminology", &termDoc); err != nil {
		return nil, err
	}

	var patternDoc patternDocument
	if err := loadDocument(read, "patterns", &patternDoc); err != nil {
		return nil, err
	}

	var sparringDoc sparringDocument
	if err := loadDocument(read, "step_sparring", &sparringDoc); err != nil {
		return nil, err
	}

	return New(beltDoc.Belts, termDoc.Terminology, patternDoc.Patterns, sparringDoc.Sequences)
}

// loadDocument reads one content file through read, validates it against
// the embedded schema of the same name and decodes it into out.
func loadDocument(read func(name string) ([]byte, error), name string, out any) error {
	raw, err := read(name)
	if err != nil {
		return fmt.Errorf("read content %s: %w", name, err)
	}

	if err := validateDocument(name, raw); err != nil {
		return err
	}

	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode content %s: %w", name, err)
	}

	return nil
}

// validateDocument validates raw JSON against the embedded schema for the
// given document name.
func validateDocument(name string, raw []byte) error {
	schemaRaw, err := catalogFS.ReadFile("schema/" + name + ".schema.json")
	if err != nil {
		return fmt.Errorf("read schema %s: %w", name, err)
	}

	// The jsonschema library expects parsed JSON values (any), not raw bytes.
	var schemaParsed any
	if err := json.Unmarshal(schemaRaw, &schemaParsed); err != nil {
		return fmt.Errorf("parse schema %s: %w", name, err)
	}

	var docParsed any
	if err := json.Unmarshal(raw, &docParsed); err != nil {
		return fmt.Errorf("parse content %s: %w", name, err)
	}

	compiler := jsonschema.NewCompiler()
	schemaURL := fmt.Sprintf("schema://%s.schema.json", name)
	if err := compiler.AddResource(schemaURL, schemaParsed); err != nil {
		return fmt.Errorf("add schema resource %s: %w", name, err)
	}

	compiled, err := compiler.Compile(schemaURL)
	if err != nil {
		return fmt.Errorf("compile schema %s: %w", name, err)
	}

	if err := compiled.Validate(docParsed); err != nil {
		return fmt.Errorf("content %s: schema validation failed: %w", name, err)
	}

	return nil
}

// New builds an indexed catalogue from already-decoded documents, applying
// the same invariant checks Load applies to the embedded content. It is
// the entry point for callers working with external content files.
func New(
	belts []Belt,
	terminology []TerminologyEntry,
	patterns []Pattern,
	sequences []StepSparringSequence,
) (*Catalog, error) {
	if len(belts) == 0 {
		return nil, ErrEmptyBeltTable
	}

	beltByRank := make(map[int]Belt, len(belts))
	for _, belt := range belts {
		if _, exists := beltByRank[belt.Rank]; exists {
			return nil, fmt.Errorf("%w: rank %d", ErrDuplicateBeltRank, belt.Rank)
		}
		beltByRank[belt.Rank] = belt
	}

	sorted := make([]Belt, len(belts))
	copy(sorted, belts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank < sorted[j].Rank })

	cat := &Catalog{
		belts:       sorted,
		beltByRank:  beltByRank,
		terminology: terminology,
		patterns:    patterns,
		sequences:   sequences,
		itemByKey:   make(map[itemKey]StudyItem),
	}

	ordinal := 0
	addItem := func(item StudyItem) error {
		key := itemKey{kind: item.Kind, id: item.ID}
		if _, exists := cat.itemByKey[key]; exists {
			return fmt.Errorf("%w: %s %q", ErrDuplicateItemID, item.Kind, item.ID)
		}
		for _, rank := range item.BeltRanks {
			if _, known := beltByRank[rank]; !known {
				return fmt.Errorf("%w: %s %q tagged with rank %d", ErrUnknownBeltRank, item.Kind, item.ID, rank)
			}
		}
		item.Ordinal = ordinal
		ordinal++
		cat.itemByKey[key] = item
		cat.items = append(cat.items, item)
		return nil
	}

	for _, entry := range terminology {
		err := addItem(StudyItem{
			ID:        entry.ID,
			Kind:      domain.ItemKindTerminology,
			BeltRanks: entry.BeltRanks,
			Prompt:    entry.English,
			Answer:    entry.Romanised,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, pattern := range patterns {
		if len(pattern.Moves) > 0 && len(pattern.Moves) != pattern.MoveCount {
			return nil, fmt.Errorf("%w: %q declares %d moves but lists %d",
				ErrMoveCountMismatch, pattern.ID, pattern.MoveCount, len(pattern.Moves))
		}
		err := addItem(StudyItem{
			ID:        pattern.ID,
			Kind:      domain.ItemKindPattern,
			BeltRanks: pattern.BeltRanks,
			Prompt:    pattern.Name,
			Answer:    pattern.Meaning,
		})
		if err != nil {
			return nil, err
		}
	}

	for _, seq := range sequences {
		err := addItem(StudyItem{
			ID:        seq.ID,
			Kind:      domain.ItemKindStepSparring,
			BeltRanks: seq.BeltRanks,
			Prompt:    seq.Title(),
			Answer:    sparringAnswer(seq),
		})
		if err != nil {
			return nil, err
		}
	}

	return cat, nil
}

// sparringAnswer summarizes the prescribed response of a sequence for its
// flashcard face: the final exchange's defense, plus the counter if one
// is prescribed.
func sparringAnswer(seq StepSparringSequence) string {
	last := seq.Steps[len(seq.Steps)-1]
	if last.Counter != nil {
		return fmt.Sprintf("Defend with %s; counter with %s", last.Defense.English, last.Counter.English)
	}
	return fmt.Sprintf("Defend with %s", last.Defense.English)
}
