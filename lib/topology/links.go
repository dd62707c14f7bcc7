// Copyright 2026 The KFD Project Authors
// SPDX-License-Identifier: Apache-2.0

package topology

import "github.com/kfd-project/kfdinfo/lib/schema"

// directWeightLimit is the maximum weight of a single-hop link. The
// driver assigns 20 or less to direct PCIe, XGMI, and local NUMA
// links; anything heavier already crosses an intermediate hop.
const directWeightLimit = 20

// addIndirectLinks synthesizes links for node pairs the driver does
// not connect directly. A GPU reaches a remote GPU (or a remote CPU
// reaches a GPU) through the CPU socket each device hangs off, so the
// synthesized weight is the sum of the hops through those sockets.
// Socket interconnect hops over QPI heavier than a direct link are
// not bridged: peer access does not work across them.
func addIndirectLinks(snapshot *schema.Snapshot) {
	byID := make(map[uint32]*schema.Node, len(snapshot.Nodes))
	for i := range snapshot.Nodes {
		byID[snapshot.Nodes[i].Properties.NodeID] = &snapshot.Nodes[i]
	}

	type pair struct{ from, to uint32 }
	direct := make(map[pair]*schema.IOLink)
	for i := range snapshot.Nodes {
		for j := range snapshot.Nodes[i].IOLinks {
			link := &snapshot.Nodes[i].IOLinks[j]
			direct[pair{link.NodeFrom, link.NodeTo}] = link
		}
	}

	isCPU := func(id uint32) bool {
		node, ok := byID[id]
		return ok && node.Properties.IsCPU()
	}

	// owningCPU finds the lightest direct link from a node to a CPU
	// node. For a CPU node that is the node itself at zero cost.
	owningCPU := func(node *schema.Node) (uint32, uint32, bool) {
		if node.Properties.IsCPU() {
			return node.Properties.NodeID, 0, true
		}
		found := false
		var cpu, weight uint32
		for _, link := range node.IOLinks {
			if link.Indirect || !isCPU(link.NodeTo) {
				continue
			}
			if link.Weight > directWeightLimit {
				continue
			}
			if !found || link.Weight < weight {
				cpu, weight, found = link.NodeTo, link.Weight, true
			}
		}
		return cpu, weight, found
	}

	for i := range snapshot.Nodes {
		from := &snapshot.Nodes[i]
		fromID := from.Properties.NodeID
		for j := range snapshot.Nodes {
			to := &snapshot.Nodes[j]
			toID := to.Properties.NodeID
			if fromID == toID {
				continue
			}
			// CPU-to-CPU connectivity is the kernel's business.
			if from.Properties.IsCPU() && to.Properties.IsCPU() {
				continue
			}
			if _, ok := direct[pair{fromID, toID}]; ok {
				continue
			}

			fromCPU, fromWeight, ok := owningCPU(from)
			if !ok {
				continue
			}
			toCPU, toWeight, ok := owningCPU(to)
			if !ok {
				continue
			}

			weight := fromWeight + toWeight
			if fromCPU != toCPU {
				socket, ok := direct[pair{fromCPU, toCPU}]
				if !ok {
					continue
				}
				if socket.Type == schema.LinkQPI && socket.Weight > directWeightLimit {
					continue
				}
				weight += socket.Weight
			}

			from.IOLinks = append(from.IOLinks, schema.IOLink{
				Type:     schema.LinkUndefined,
				NodeFrom: fromID,
				NodeTo:   toID,
				Weight:   weight,
				Indirect: true,
			})
			from.Properties.IOLinksCount++
		}
	}
}
