package sheet

import (
	"slices"

	"go.uber.org/zap"

	"github.com/TsubasaBE/go-xls/aggregate"
	"github.com/TsubasaBE/go-xls/biff8"
	"github.com/TsubasaBE/go-xls/pagesettings"
	"github.com/TsubasaBE/go-xls/rowblock"
)

// synthesize adds the structural pieces every sheet must have: an explicit
// HEADER and FOOTER in the page-settings block, a DIMENSIONS record and a
// row block.
func (s *Sheet) synthesize() {
	if s.pageSettings != nil {
		s.pageSettings.Synthesize()
	}

	dims := slices.IndexFunc(s.items, func(it Item) bool {
		return it.Aggregate == nil && it.gen == notGenerated && it.Record.Sid == biff8.Dimensions
	})
	if dims < 0 {
		dims = s.dimensionsPosition()
		s.items = slices.Insert(s.items, dims, Item{gen: genDimensions})
		s.diags.Addf(aggregate.CodeSynthesized, biff8.Dimensions, -1, "DIMENSIONS computed from the row block")
	}
	if s.rows == nil {
		s.rows = rowblock.New()
		s.items = slices.Insert(s.items, dims+1, Item{Aggregate: s.rows})
	}
}

// dimensionsPosition returns where a synthesized DIMENSIONS goes: before
// the row block, else before WINDOW2, else before EOF.
func (s *Sheet) dimensionsPosition() int {
	for i, it := range s.items {
		if it.Aggregate != nil && it.Aggregate.Kind() == aggregate.KindRowBlock {
			return i
		}
	}
	for i, it := range s.items {
		if it.Aggregate == nil && (it.Record.Sid == biff8.Window2 || it.Record.Sid == biff8.EOF) {
			return i
		}
	}
	return len(s.items)
}

// resolve runs the second phase.
func (s *Sheet) resolve(policy OrphanPolicy) {
	s.rows.ResolveShared(s.diags)
	if s.pageSettings == nil {
		return
	}

	var orphans []pagesettings.HeaderFooterRun
	for _, run := range s.pageSettings.TakeViewHeaderFooters() {
		id, err := pagesettings.HeaderFooterView(run.Records[0])
		if err != nil {
			s.diags.Addf(aggregate.CodeUnresolvedCrossReference, biff8.HeaderFooter, run.Index, "%v", err)
			s.pageSettings.KeepViewHeaderFooter(run)
			continue
		}
		v, ok := s.View(id)
		if !ok {
			orphans = append(orphans, run)
			continue
		}
		if v.AttachHeaderFooter(run.Records) {
			s.diags.Addf(aggregate.CodeFolded, biff8.HeaderFooter, run.Index,
				"second HEADERFOOTER for view %s folded into the first", id)
		}
	}

	for _, run := range orphans {
		id, _ := pagesettings.HeaderFooterView(run.Records[0])
		if policy == NearestPreceding {
			if i := s.nearestPrecedingView(run.Index); i >= 0 {
				v := s.views[i]
				if _, taken := v.HeaderFooter(); !taken {
					v.AttachHeaderFooter(run.Records)
					s.diags.Addf(aggregate.CodeUnresolvedCrossReference, biff8.HeaderFooter, run.Index,
						"no view %s; attached to preceding view %s", id, v.ID())
					continue
				}
			}
		}
		s.pageSettings.KeepViewHeaderFooter(run)
		s.diags.Addf(aggregate.CodeUnresolvedCrossReference, biff8.HeaderFooter, run.Index,
			"no view %s; kept in the sheet", id)
	}
	if len(orphans) > 0 {
		s.log.Debug("Orphan view header/footer records placed",
			zap.Int("count", len(orphans)), zap.Stringer("policy", policy))
	}
}

// nearestPrecedingView returns the index in s.views of the view whose
// USERSVIEWBEGIN is the last one before index, or -1.
func (s *Sheet) nearestPrecedingView(index int) int {
	best := -1
	for i, start := range s.viewStart {
		if index >= 0 && start < index && (best < 0 || start > s.viewStart[best]) {
			best = i
		}
	}
	return best
}
