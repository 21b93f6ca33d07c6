package graph_test

import (
	"testing"

	"github.com/sentinelguard/sentinelguard/pkg/graph"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func TestGraph(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Identity Graph Store Suite")
}

func mustUpsert(s *graph.Store, n graph.Node) {
	Expect(s.UpsertNode(n)).To(Succeed())
}

var _ = Describe("Store", func() {
	var store *graph.Store

	BeforeEach(func() {
		store = graph.NewStore()
	})

	It("rejects privilege levels outside [0,100]", func() {
		err := store.UpsertNode(graph.Node{ID: "user:a", Kind: graph.NodeUser, PrivilegeLevel: 101})
		Expect(err).To(HaveOccurred())
		err = store.UpsertNode(graph.Node{ID: "user:b", Kind: graph.NodeUser, PrivilegeLevel: -1})
		Expect(err).To(HaveOccurred())
	})

	It("rejects edges referencing unknown nodes", func() {
		mustUpsert(store, graph.Node{ID: "user:a", Kind: graph.NodeUser, PrivilegeLevel: 10})
		err := store.UpsertEdge("user:a", "role:missing", graph.EdgeCanAssume, nil)
		Expect(err).To(HaveOccurred())
	})

	It("supports a multigraph: multiple edge kinds between the same pair", func() {
		mustUpsert(store, graph.Node{ID: "user:a", Kind: graph.NodeUser, PrivilegeLevel: 10})
		mustUpsert(store, graph.Node{ID: "role:b", Kind: graph.NodeRole, PrivilegeLevel: 60})
		Expect(store.UpsertEdge("user:a", "role:b", graph.EdgeCanAssume, nil)).To(Succeed())
		Expect(store.UpsertEdge("user:a", "role:b", graph.EdgeTrusts, nil)).To(Succeed())

		nbs := store.Neighbors("user:a", graph.Out)
		Expect(nbs).To(HaveLen(2))
	})

	It("returns neighbors sorted by edge kind then node identifier", func() {
		mustUpsert(store, graph.Node{ID: "user:a", Kind: graph.NodeUser, PrivilegeLevel: 10})
		mustUpsert(store, graph.Node{ID: "role:z", Kind: graph.NodeRole, PrivilegeLevel: 60})
		mustUpsert(store, graph.Node{ID: "role:m", Kind: graph.NodeRole, PrivilegeLevel: 60})
		Expect(store.UpsertEdge("user:a", "role:z", graph.EdgeCanAssume, nil)).To(Succeed())
		Expect(store.UpsertEdge("user:a", "role:m", graph.EdgeCanAssume, nil)).To(Succeed())

		nbs := store.Neighbors("user:a", graph.Out)
		Expect(nbs[0].Node.ID).To(Equal("role:m"))
		Expect(nbs[1].Node.ID).To(Equal("role:z"))
	})

	It("computes bounded BFS reachability", func() {
		mustUpsert(store, graph.Node{ID: "a", Kind: graph.NodeRole, PrivilegeLevel: 10})
		mustUpsert(store, graph.Node{ID: "b", Kind: graph.NodeRole, PrivilegeLevel: 10})
		mustUpsert(store, graph.Node{ID: "c", Kind: graph.NodeRole, PrivilegeLevel: 10})
		mustUpsert(store, graph.Node{ID: "d", Kind: graph.NodeRole, PrivilegeLevel: 10})
		Expect(store.UpsertEdge("a", "b", graph.EdgeOwns, nil)).To(Succeed())
		Expect(store.UpsertEdge("b", "c", graph.EdgeOwns, nil)).To(Succeed())
		Expect(store.UpsertEdge("c", "d", graph.EdgeOwns, nil)).To(Succeed())

		Expect(store.Reachable("a", 1)).To(HaveKey("b"))
		Expect(store.Reachable("a", 1)).NotTo(HaveKey("c"))
		Expect(store.Reachable("a", 2)).To(HaveKey("c"))
		Expect(store.Reachable("a", 2)).NotTo(HaveKey("d"))
	})

	It("round-trips through Snapshot/Restore", func() {
		mustUpsert(store, graph.Node{ID: "a", Kind: graph.NodeUser, PrivilegeLevel: 10})
		mustUpsert(store, graph.Node{ID: "b", Kind: graph.NodeRole, PrivilegeLevel: 60})
		Expect(store.UpsertEdge("a", "b", graph.EdgeCanAssume, map[string]string{"x": "y"})).To(Succeed())

		snap := store.Snapshot()

		restored := graph.NewStore()
		Expect(restored.Restore(snap)).To(Succeed())
		Expect(restored.Snapshot()).To(Equal(snap))
	})
})
