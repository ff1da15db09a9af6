package main

import (
	entity "github.com/ruoso/poc-inside-out-objects"
)

const maxAge = 100

// handleNode is the handle-graph node, storage type T for the
// comparison; children that don't exist carry an empty Handle rather
// than a pointer-typed optional.
type handleNode struct {
	age      int
	children [2]entity.Handle[handleNode]
}

func (handleNode) FromFields(fields ...any) (handleNode, error) {
	return handleNode{
		age:      fields[0].(int),
		children: [2]entity.Handle[handleNode]{fields[1].(entity.Handle[handleNode]), fields[2].(entity.Handle[handleNode])},
	}, nil
}

type nodeStorage = entity.Storage[handleNode, uint32, uint8]

func createHandleTree(s *nodeStorage, depth int, age *int) (entity.Handle[handleNode], error) {
	if depth == 0 {
		return entity.Handle[handleNode]{}, nil
	}
	*age = (*age + 1) % maxAge

	left, err := createHandleTree(s, depth-1, age)
	if err != nil {
		return entity.Handle[handleNode]{}, err
	}
	right, err := createHandleTree(s, depth-1, age)
	if err != nil {
		return entity.Handle[handleNode]{}, err
	}
	return entity.MakeEntityFields[handleNode, uint32, uint8](s, *age, left, right)
}

// simulateHandleTick rebuilds every node of the tree with an
// incremented age, matching simulateManagedEntityTick's "always
// create a new node since we're using const objects" behavior. The
// old root handle is left for the caller to Close.
func simulateHandleTick(s *nodeStorage, node entity.Handle[handleNode]) (entity.Handle[handleNode], error) {
	if node.Empty() {
		return entity.Handle[handleNode]{}, nil
	}
	v := node.Value()

	newLeft, err := simulateHandleTick(s, v.children[0])
	if err != nil {
		return entity.Handle[handleNode]{}, err
	}
	newRight, err := simulateHandleTick(s, v.children[1])
	if err != nil {
		return entity.Handle[handleNode]{}, err
	}
	newAge := (v.age + 1) % maxAge
	return entity.MakeEntityFields[handleNode, uint32, uint8](s, newAge, newLeft, newRight)
}

func visitHandleTree(node entity.Handle[handleNode]) int {
	if node.Empty() {
		return 0
	}
	v := node.Value()
	return v.age + visitHandleTree(v.children[0]) + visitHandleTree(v.children[1])
}

func closeHandleTree(node entity.Handle[handleNode]) {
	if node.Empty() {
		return
	}
	v := node.Value()
	closeHandleTree(v.children[0])
	closeHandleTree(v.children[1])
	node.Close()
}

// ptrNode is the plain Go pointer graph, relying entirely on the
// garbage collector, the TestObjectSharedPtr analogue.
type ptrNode struct {
	age      int
	children [2]*ptrNode
}

func createPtrTree(depth int, age *int) *ptrNode {
	if depth == 0 {
		return nil
	}
	*age = (*age + 1) % maxAge

	left := createPtrTree(depth-1, age)
	right := createPtrTree(depth-1, age)
	return &ptrNode{age: *age, children: [2]*ptrNode{left, right}}
}

func simulatePtrTick(node *ptrNode) *ptrNode {
	if node == nil {
		return nil
	}
	newLeft := simulatePtrTick(node.children[0])
	newRight := simulatePtrTick(node.children[1])
	newAge := (node.age + 1) % maxAge
	return &ptrNode{age: newAge, children: [2]*ptrNode{newLeft, newRight}}
}

func visitPtrTree(node *ptrNode) int {
	if node == nil {
		return 0
	}
	return node.age + visitPtrTree(node.children[0]) + visitPtrTree(node.children[1])
}
