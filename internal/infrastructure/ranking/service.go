// Package ranking resolves VHB and ABDC journal ratings from local data
// files. Lookups go ISSN first, then eISSN, then normalized journal name.
package ranking

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/mfriesen/litgraph/internal/core/domain"
	"github.com/mfriesen/litgraph/internal/core/normalize"
)

type table struct {
	byISSN map[string]domain.Rank
	byName map[string]domain.Rank
}

// Service answers journal rating lookups for both ranking schemes. The zero
// value resolves everything to unranked, which keeps ingestion working when
// no data files are configured.
type Service struct {
	vhb  table
	abdc table
}

type rankingFile struct {
	ISSNToRating map[string]string `yaml:"issn_to_rating"`
	NameToRating map[string]string `yaml:"name_to_rating"`
}

// Load reads the VHB and ABDC data files. An empty path skips that scheme.
func Load(vhbPath, abdcPath string) (*Service, error) {
	svc := &Service{}
	if vhbPath != "" {
		t, err := loadTable(vhbPath)
		if err != nil {
			return nil, fmt.Errorf("load vhb rankings: %w", err)
		}
		svc.vhb = t
	}
	if abdcPath != "" {
		t, err := loadTable(abdcPath)
		if err != nil {
			return nil, fmt.Errorf("load abdc rankings: %w", err)
		}
		svc.abdc = t
	}
	return svc, nil
}

func loadTable(path string) (table, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return table{}, err
	}
	var file rankingFile
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return table{}, fmt.Errorf("decode %s: %w", path, err)
	}

	t := table{
		byISSN: make(map[string]domain.Rank, len(file.ISSNToRating)),
		byName: make(map[string]domain.Rank, len(file.NameToRating)),
	}
	for issn, rating := range file.ISSNToRating {
		t.byISSN[normalize.ISSN(issn)] = domain.ParseRank(rating)
	}
	for name, rating := range file.NameToRating {
		t.byName[normalize.JournalName(name)] = domain.ParseRank(rating)
	}
	return t, nil
}

// VHB resolves the VHB rating for a journal.
func (s *Service) VHB(journal, issn, eissn string) domain.Rank {
	return s.vhb.lookup(journal, issn, eissn)
}

// ABDC resolves the ABDC rating for a journal.
func (s *Service) ABDC(journal, issn, eissn string) domain.Rank {
	return s.abdc.lookup(journal, issn, eissn)
}

func (t table) lookup(journal, issn, eissn string) domain.Rank {
	if issn != "" {
		if rank, ok := t.byISSN[normalize.ISSN(issn)]; ok {
			return rank
		}
	}
	if eissn != "" {
		if rank, ok := t.byISSN[normalize.ISSN(eissn)]; ok {
			return rank
		}
	}
	if journal != "" {
		if rank, ok := t.byName[normalize.JournalName(journal)]; ok {
			return rank
		}
	}
	return domain.RankUnranked
}
