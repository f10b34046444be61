package telemetry

import (
	"fmt"
	"log/slog"
	"sort"

	"gonum.org/v1/gonum/stat"
)

// BookmarkType identifies the type of bookmark.
type BookmarkType string

const (
	BookmarkFirstReaction BookmarkType = "first_reaction"
	BookmarkExtinction    BookmarkType = "extinction"
	BookmarkReactionBurst BookmarkType = "reaction_burst"
	BookmarkEquilibrium   BookmarkType = "equilibrium"
)

// Bookmark represents an automatically triggered bookmark.
type Bookmark struct {
	Type        BookmarkType `csv:"type" json:"type"`
	Tick        int64        `csv:"tick" json:"tick"`
	Description string       `csv:"description" json:"description"`
}

// LogBookmark logs the bookmark using slog.
func (b Bookmark) LogBookmark() {
	slog.Info("bookmark",
		"type", string(b.Type),
		"tick", b.Tick,
		"description", b.Description,
	)
}

// Stable windows required before an equilibrium bookmark fires.
const equilibriumWindows = 5

// BookmarkDetector detects interesting moments in a run.
type BookmarkDetector struct {
	history     []WindowStats // oldest first
	historySize int

	sawReaction  bool
	present      map[string]bool // species seen with a non-zero count
	stableStreak int
}

// NewBookmarkDetector creates a detector with the given history size.
func NewBookmarkDetector(historySize int) *BookmarkDetector {
	if historySize < equilibriumWindows {
		historySize = equilibriumWindows
	}
	return &BookmarkDetector{
		historySize: historySize,
		present:     make(map[string]bool),
	}
}

// Check analyzes the latest stats and returns any triggered bookmarks.
func (bd *BookmarkDetector) Check(stats WindowStats) []Bookmark {
	var bookmarks []Bookmark

	if b := bd.checkFirstReaction(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	bookmarks = append(bookmarks, bd.checkExtinctions(stats)...)
	if b := bd.checkReactionBurst(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}
	if b := bd.checkEquilibrium(stats); b != nil {
		bookmarks = append(bookmarks, *b)
	}

	bd.history = append(bd.history, stats)
	if len(bd.history) > bd.historySize {
		bd.history = bd.history[1:]
	}
	return bookmarks
}

func (bd *BookmarkDetector) checkFirstReaction(stats WindowStats) *Bookmark {
	if bd.sawReaction || stats.Reactions == 0 {
		return nil
	}
	bd.sawReaction = true
	return &Bookmark{
		Type:        BookmarkFirstReaction,
		Tick:        stats.WindowEndTick,
		Description: fmt.Sprintf("First reactions: %d in window ending at tick %d", stats.Reactions, stats.WindowEndTick),
	}
}

func (bd *BookmarkDetector) checkExtinctions(stats WindowStats) []Bookmark {
	species := make([]string, 0, len(stats.Counts))
	for id := range stats.Counts {
		species = append(species, id)
	}
	sort.Strings(species)

	var out []Bookmark
	for _, id := range species {
		n := stats.Counts[id]
		if n > 0 {
			bd.present[id] = true
			continue
		}
		if bd.present[id] {
			bd.present[id] = false
			out = append(out, Bookmark{
				Type:        BookmarkExtinction,
				Tick:        stats.WindowEndTick,
				Description: fmt.Sprintf("Species %s went extinct", id),
			})
		}
	}
	return out
}

func (bd *BookmarkDetector) checkReactionBurst(stats WindowStats) *Bookmark {
	if len(bd.history) < 3 {
		return nil
	}
	var total int
	for _, h := range bd.history {
		total += h.Reactions
	}
	avg := float64(total) / float64(len(bd.history))
	if avg == 0 {
		return nil
	}
	if float64(stats.Reactions) > 2*avg && stats.Reactions >= 5 {
		return &Bookmark{
			Type:        BookmarkReactionBurst,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("%d reactions is %.1fx the recent average (%.1f)", stats.Reactions, float64(stats.Reactions)/avg, avg),
		}
	}
	return nil
}

// checkEquilibrium fires once when every species' count has had a
// coefficient of variation below 5% over the last few windows.
func (bd *BookmarkDetector) checkEquilibrium(stats WindowStats) *Bookmark {
	recent := append(append([]WindowStats(nil), bd.history...), stats)
	if len(recent) < 4 || len(stats.Counts) == 0 {
		return nil
	}
	recent = recent[len(recent)-4:]

	stable := true
	for id := range stats.Counts {
		xs := make([]float64, len(recent))
		for i, h := range recent {
			xs[i] = float64(h.Counts[id])
		}
		mean, std := stat.PopMeanStdDev(xs, nil)
		if mean == 0 {
			continue
		}
		if std/mean >= 0.05 {
			stable = false
			break
		}
	}

	if !stable {
		bd.stableStreak = 0
		return nil
	}
	bd.stableStreak++
	if bd.stableStreak == equilibriumWindows {
		return &Bookmark{
			Type:        BookmarkEquilibrium,
			Tick:        stats.WindowEndTick,
			Description: fmt.Sprintf("Counts stable over %d windows with %d particles", equilibriumWindows, stats.Particles),
		}
	}
	return nil
}
