package scanner

import (
	"github.com/garagon/skillaudit/internal/meta"
	"github.com/garagon/skillaudit/internal/types"
	"go.uber.org/zap"
)

// Scanner runs the inventory, every registered phase in order, the
// permission and metadata extractors, and finally the aggregation steps.
// A Scanner holds no per-audit state and may audit several roots
// concurrently once configured.
type Scanner struct {
	inventory   Inventorier
	phases      []Phase
	permissions PermissionExtractor
	metadata    MetadataExtractor
	reducer     Reducer
	log         *zap.Logger
	progress    func(phase string)
}

// New creates an empty Scanner that logs to log (nil disables logging).
func New(log *zap.Logger) *Scanner {
	if log == nil {
		log = zap.NewNop()
	}
	return &Scanner{log: log}
}

// SetInventory sets the inventory layer, which always runs first.
func (s *Scanner) SetInventory(inv Inventorier) { s.inventory = inv }

// RegisterPhase appends a detection phase. Phases run in registration order.
func (s *Scanner) RegisterPhase(p Phase) { s.phases = append(s.phases, p) }

// SetPermissionExtractor sets the advisory permission extractor.
func (s *Scanner) SetPermissionExtractor(p PermissionExtractor) { s.permissions = p }

// SetMetadataExtractor sets the advisory metadata extractor.
func (s *Scanner) SetMetadataExtractor(m MetadataExtractor) { s.metadata = m }

// SetReducer sets the whitelist reducer applied after deduplication.
func (s *Scanner) SetReducer(r Reducer) { s.reducer = r }

// SetProgress registers a callback invoked with each phase name before it runs.
func (s *Scanner) SetProgress(fn func(phase string)) { s.progress = fn }

// Phases returns the names of the registered phases in run order.
func (s *Scanner) Phases() []string {
	names := make([]string, 0, len(s.phases))
	for _, p := range s.phases {
		names = append(names, p.Name())
	}
	return names
}

// Audit runs the full pipeline against root. It never fails: unreadable
// content is skipped and a missing root is reported as a finding.
func (s *Scanner) Audit(root string) *types.Report {
	tree := OpenTree(root, s.log)
	s.log.Debug("audit started", zap.String("root", tree.Root()), zap.Bool("exists", tree.Exists()))

	var (
		findings  []types.Finding
		inventory []types.FileEntry
	)
	if s.inventory != nil {
		s.step("inventory")
		entries, got := s.inventory.Inventory(tree)
		inventory = entries
		findings = append(findings, got...)
		s.log.Debug("phase finished", zap.String("phase", "inventory"),
			zap.Int("files", len(entries)), zap.Int("findings", len(got)))
	}

	for _, p := range s.phases {
		s.step(p.Name())
		got := p.Run(tree)
		findings = append(findings, got...)
		s.log.Debug("phase finished", zap.String("phase", p.Name()), zap.Int("findings", len(got)))
	}

	report := &types.Report{
		SkillPath:            tree.Root(),
		FileInventory:        inventory,
		PermissionsRequested: []types.Permission{},
	}
	if report.FileInventory == nil {
		report.FileInventory = []types.FileEntry{}
	}
	if s.permissions != nil {
		s.step("permissions")
		if perms := s.permissions.Permissions(tree); perms != nil {
			report.PermissionsRequested = perms
		}
	}
	if s.metadata != nil {
		report.SkillName, report.SkillDescription = s.metadata.Metadata(tree)
	}

	findings = meta.Deduplicate(findings)
	raw := meta.RawScore(findings)

	reduction := 0
	if s.reducer != nil {
		s.step("whitelist")
		reduction = meta.ClampReduction(s.reducer.Reduction(tree))
	}

	report.Findings = findings
	report.TotalFindings = len(findings)
	report.WhitelistReduction = reduction
	report.NumericScore = meta.FinalScore(raw, reduction)
	report.RiskLevel = meta.Classify(report.NumericScore)
	report.RiskScore = meta.HighestSeverity(findings)
	report.SeverityCounts, report.CategoryCounts = meta.Histograms(findings)

	s.log.Debug("audit finished",
		zap.Int("raw_score", raw),
		zap.Int("reduction", reduction),
		zap.Int("score", report.NumericScore),
		zap.String("level", string(report.RiskLevel)))
	return report
}

func (s *Scanner) step(name string) {
	if s.progress != nil {
		s.progress(name)
	}
}
