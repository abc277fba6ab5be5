package timeline

import "sort"

// Resolve places incoming on a track currently holding existing and returns
// the replacement item list with no pairwise overlaps and every From >= 0.
// Existing items are never dropped: overlapped items are displaced without
// changing their duration, or split in two when incoming lands strictly
// inside them. The split's right piece receives a fresh id from newID; the
// left piece keeps the original id.
//
// An incoming duration <= 0 is a no-op insertion request and returns the
// input list unchanged. Duplicate ids among existing are a caller error and
// are not defended against.
//
// Conflicts are resolved one at a time in a stable ascending-From scan:
// the first overlapping pair is resolved and the scan restarts, until a full
// pass finds none. Within a pair the item that moved most recently holds its
// ground (incoming always does) and the other yields. A holder that was
// itself displaced pushes the yielder onward in its own displacement
// direction, so each cascade travels outward one way instead of
// re-contesting a slot between two displaced peers. After the fixed point,
// all positions are shifted uniformly if any From went negative. Identical
// inputs always produce identical output.
func Resolve(existing []Item, incoming Item, newID func() string) []Item {
	if incoming.DurationInFrames <= 0 {
		out := make([]Item, len(existing))
		copy(out, existing)
		return out
	}

	const settledSeq = int(^uint(0) >> 1)

	items := make([]placedItem, 0, len(existing)+1)
	for _, e := range existing {
		items = append(items, placedItem{Item: e})
	}
	items = append(items, placedItem{Item: incoming, seq: settledSeq})

	// Each resolution settles the first remaining conflict or advances a
	// one-way cascade, so a well-formed input converges well inside this
	// bound; it only stops a malformed (pre-overlapping) set from looping.
	bound := (len(existing) + 1) * (len(existing) + 2)
	seq := 0

	for pass := 0; pass < bound; pass++ {
		sort.SliceStable(items, func(i, j int) bool {
			return items[i].From < items[j].From
		})

		i, j, found := firstOverlap(items)
		if !found {
			break
		}

		// The yielding item is the one that moved least recently.
		e, n := i, j
		if items[i].seq > items[j].seq {
			e, n = j, i
		}

		seq++
		if d := items[n].dir; d != 0 {
			// The holder is the front of a travelling cascade: the
			// yielder continues in the same direction rather than
			// re-running the placement heuristics against it.
			if d < 0 {
				items[e].From = items[n].From - items[e].DurationInFrames
			} else {
				items[e].From = items[n].End()
			}
			items[e].dir = d
			items[e].seq = seq
			continue
		}

		switch classify(items[e].Item, items[n].Item) {
		case coverFull:
			// Nearest edge by center; exact tie goes right.
			if items[e].From+items[e].End() < items[n].From+items[n].End() {
				items[e].From = items[n].From - items[e].DurationInFrames
				items[e].dir = -1
			} else {
				items[e].From = items[n].End()
				items[e].dir = 1
			}
			items[e].seq = seq
		case coverContained:
			left, right := split(items[e].Item, items[n].Item, newID())
			keepSeq := items[e].seq
			items[e] = placedItem{Item: left, seq: keepSeq}
			items = append(items, placedItem{Item: right, seq: keepSeq})
		case coverRight:
			items[e].From = items[n].From - items[e].DurationInFrames
			items[e].dir = -1
			items[e].seq = seq
		case coverLeft:
			items[e].From = items[n].End()
			items[e].dir = 1
			items[e].seq = seq
		}
	}

	out := make([]Item, len(items))
	for i, p := range items {
		out[i] = p.Item
	}
	clampFloor(out)
	SortByFrom(out)
	return out
}

type placedItem struct {
	Item
	seq int
	dir int // -1 after a leftward displacement, 1 after a rightward one
}

// firstOverlap returns the indexes of the first overlapping pair in a
// From-sorted item list.
func firstOverlap(items []placedItem) (int, int, bool) {
	for i := 0; i < len(items); i++ {
		for j := i + 1; j < len(items); j++ {
			if items[j].From >= items[i].End() {
				break
			}
			if items[i].Overlaps(items[j].Item) {
				return i, j, true
			}
		}
	}
	return 0, 0, false
}

type coverage int

const (
	coverFull      coverage = iota // the holding item fully covers the yielding one
	coverContained                 // the holding item sits strictly inside the yielding one
	coverRight                     // the yielding item's tail is clipped
	coverLeft                      // the yielding item's head is clipped
)

func classify(e, n Item) coverage {
	switch {
	case e.From >= n.From && e.End() <= n.End():
		return coverFull
	case e.From < n.From && e.End() > n.End():
		return coverContained
	case e.From < n.From:
		return coverRight
	default:
		return coverLeft
	}
}

// split divides e into the pieces flanking n. The left piece keeps e's id
// and trim start; the right piece's trim window advances by the source
// consumed up to n's end.
func split(e, n Item, rightID string) (Item, Item) {
	left := e
	left.DurationInFrames = n.From - e.From
	if left.Kind.IsMedia() {
		left.TrimEndFrame = left.TrimStartFrame + left.DurationInFrames
	}

	right := e
	right.ID = rightID
	right.From = n.End()
	right.DurationInFrames = e.End() - n.End()
	if right.Kind.IsMedia() {
		right.TrimStartFrame = e.TrimStartFrame + (n.End() - e.From)
		right.TrimEndFrame = right.TrimStartFrame + right.DurationInFrames
	}
	return left, right
}

// clampFloor shifts every item right by the same amount when any item ended
// up before frame zero, preserving all relative spacing.
func clampFloor(items []Item) {
	minFrom := 0
	for _, it := range items {
		if it.From < minFrom {
			minFrom = it.From
		}
	}
	if minFrom >= 0 {
		return
	}
	for i := range items {
		items[i].From -= minFrom
	}
}

// SortByFrom sorts items ascending by start frame, keeping the relative
// order of items that share one.
func SortByFrom(items []Item) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].From < items[j].From
	})
}
