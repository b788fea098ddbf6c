package metro

import "container/heap"

type frontierItem struct {
	minutes float64
	node    int
}

// frontier is a binary min-heap of tentative distances. Entries are never
// updated in place; stale ones are discarded when popped.
type frontier []frontierItem

func (f frontier) Len() int           { return len(f) }
func (f frontier) Less(i, j int) bool { return f[i].minutes < f[j].minutes }
func (f frontier) Swap(i, j int)      { f[i], f[j] = f[j], f[i] }

func (f *frontier) Push(x any) {
	*f = append(*f, x.(frontierItem))
}

func (f *frontier) Pop() any {
	old := *f
	n := len(old)
	item := old[n-1]
	*f = old[:n-1]
	return item
}

func (f *frontier) push(minutes float64, node int) {
	heap.Push(f, frontierItem{minutes: minutes, node: node})
}

func (f *frontier) pop() frontierItem {
	return heap.Pop(f).(frontierItem)
}
