package model

import "sort"

// GroupTree is the rooted n-ary tree representation of the physical
// topology, built from each host's dotted rack-awareness label. Internal
// nodes index children by label component; only leaf groups hold hosts.
// Every mutation happens through the root so host visibility can be
// temporarily hidden once a host has accumulated SitesPerHost partitions.
type GroupTree struct {
	root *groupNode
}

type groupNode struct {
	children map[string]*groupNode
	hosts    map[int]*Host // leaf-only: hostID -> host
}

func newGroupNode() *groupNode {
	return &groupNode{children: make(map[string]*groupNode)}
}

// NewGroupTree builds a group tree from a hostID -> *Host map, using each
// host's parsed Group label to determine its leaf path.
func NewGroupTree(hosts map[int]*Host) *GroupTree {
	t := &GroupTree{root: newGroupNode()}
	ids := sortedHostIDs(hosts)
	for _, id := range ids {
		t.root.createHost(hosts[id].Group, 0, hosts[id])
	}
	return t
}

func sortedHostIDs(hosts map[int]*Host) []int {
	ids := make([]int, 0, len(hosts))
	for id := range hosts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}

func (n *groupNode) createHost(group []string, i int, host *Host) {
	next, ok := n.children[group[i]]
	if !ok {
		next = newGroupNode()
		n.children[group[i]] = next
	}
	if len(group) == i+1 {
		if next.hosts == nil {
			next.hosts = make(map[int]*Host)
		}
		next.hosts[host.HostID] = host
		return
	}
	next.createHost(group, i+1, host)
}

func (n *groupNode) sortedChildKeys() []string {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// SortNodesByDistance returns host deques ordered by decreasing distance
// from the given label: nodes in sibling subtrees at the shallowest
// differing component come first (farthest), progressively nearer siblings
// follow, and the leaf group containing the label itself comes last
// (nearest). A nil or empty label returns every leaf group's hosts in
// canonical (lexicographic child order) order, with no "nearest" group
// singled out.
func (t *GroupTree) SortNodesByDistance(label []string) [][]*Host {
	var results [][]*Host
	t.root.siblingsOf(label, 0, &results)
	if len(label) > 0 && label[0] != "" {
		if leaf := t.root.find(label); leaf != nil {
			results = append(results, leaf.sortedHostSlice())
		}
	}
	return results
}

func (n *groupNode) siblingsOf(label []string, i int, results *[][]*Host) {
	if len(n.children) == 0 {
		return
	}
	keys := n.sortedChildKeys()

	var target string
	hasTarget := i < len(label)
	if hasTarget {
		target = label[i]
	}

	for _, k := range keys {
		if !hasTarget || k != target {
			n.children[k].collectHosts(results)
		}
	}
	for _, k := range keys {
		if hasTarget && k == target {
			n.children[k].siblingsOf(label, i+1, results)
		}
	}
}

func (n *groupNode) collectHosts(results *[][]*Host) {
	if len(n.children) == 0 {
		if len(n.hosts) > 0 {
			*results = append(*results, n.sortedHostSlice())
		}
		return
	}
	for _, k := range n.sortedChildKeys() {
		n.children[k].collectHosts(results)
	}
}

func (n *groupNode) find(label []string) *groupNode {
	cur := n
	for _, c := range label {
		next, ok := cur.children[c]
		if !ok {
			return nil
		}
		cur = next
	}
	return cur
}

func (n *groupNode) sortedHostSlice() []*Host {
	ids := make([]int, 0, len(n.hosts))
	for id := range n.hosts {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	out := make([]*Host, 0, len(ids))
	for _, id := range ids {
		out = append(out, n.hosts[id])
	}
	return out
}

// FlattenCanonical returns every host in the tree in canonical order:
// lexicographic by child-component path at every level, leaves sorted by
// host id within a group. This is the "null target" flattening used for
// master round-robin, where no group is singled out as nearest.
func (t *GroupTree) FlattenCanonical() []*Host {
	var out []*Host
	t.root.collectHostsFlat(&out)
	return out
}

func (n *groupNode) collectHostsFlat(out *[]*Host) {
	if len(n.children) == 0 {
		*out = append(*out, n.sortedHostSlice()...)
		return
	}
	for _, k := range n.sortedChildKeys() {
		n.children[k].collectHostsFlat(out)
	}
}

// RemoveHost removes a host from whichever leaf group contains it. It is
// idempotent: removing an already-absent host is a no-op.
func (t *GroupTree) RemoveHost(h *Host) {
	t.root.removeHost(h)
}

func (n *groupNode) removeHost(h *Host) {
	if len(n.children) == 0 {
		delete(n.hosts, h.HostID)
		return
	}
	for _, c := range n.children {
		c.removeHost(h)
	}
}

// AddHost reinstates a host into whichever leaf group its Group label
// designates. It is idempotent.
func (t *GroupTree) AddHost(h *Host) {
	t.root.addHostAt(h.Group, 0, h)
}

func (n *groupNode) addHostAt(group []string, i int, h *Host) {
	next, ok := n.children[group[i]]
	if !ok {
		// Label no longer resolves (should not happen for a host that was
		// already part of the tree); nothing sensible to do.
		return
	}
	if len(group) == i+1 {
		if next.hosts == nil {
			next.hosts = make(map[int]*Host)
		}
		next.hosts[h.HostID] = h
		return
	}
	next.addHostAt(group, i+1, h)
}

// GroupCount returns the number of leaf groups in the tree.
func (t *GroupTree) GroupCount() int {
	return t.root.groupCount()
}

func (n *groupNode) groupCount() int {
	if len(n.children) == 0 {
		return 1
	}
	count := 0
	for _, c := range n.children {
		count += c.groupCount()
	}
	return count
}
