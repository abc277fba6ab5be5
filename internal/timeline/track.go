package timeline

import "fmt"

// Validate checks the track invariant over items: no item starts before
// frame zero, every duration is positive, and no two intervals overlap.
func Validate(items []Item) error {
	sorted := make([]Item, len(items))
	copy(sorted, items)
	SortByFrom(sorted)

	for i, it := range sorted {
		if it.From < 0 {
			return fmt.Errorf("item %s starts at frame %d", it.ID, it.From)
		}
		if it.DurationInFrames <= 0 {
			return fmt.Errorf("item %s has duration %d", it.ID, it.DurationInFrames)
		}
		if i > 0 {
			prev := sorted[i-1]
			if prev.End() > it.From {
				return fmt.Errorf("items %s and %s overlap at frame %d", prev.ID, it.ID, it.From)
			}
		}
	}
	return nil
}

// TotalFrames returns the exclusive end frame of the last item, the track's
// effective length.
func TotalFrames(items []Item) int {
	end := 0
	for _, it := range items {
		if it.End() > end {
			end = it.End()
		}
	}
	return end
}

// FindByID returns the item with the given id, if present.
func FindByID(items []Item, id string) (Item, bool) {
	for _, it := range items {
		if it.ID == id {
			return it, true
		}
	}
	return Item{}, false
}

// RemoveByID returns a copy of items without the item carrying id.
func RemoveByID(items []Item, id string) []Item {
	out := make([]Item, 0, len(items))
	for _, it := range items {
		if it.ID != id {
			out = append(out, it)
		}
	}
	return out
}
