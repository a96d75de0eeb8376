package records

import (
	"fmt"
	"strconv"
	"strings"

	"liquidsands.ai/internal/protocol"
)

const GoodsCount = 5

var goodsNames = [GoodsCount]string{"Rubies", "Salt", "Dates", "Tea", "Water"}

// GoodName returns the display name of good i.
func GoodName(i int) string {
	if i < 0 || i >= GoodsCount {
		return ""
	}
	return goodsNames[i]
}

// Inventory counts the goods carried by a unit or offered in a trade.
type Inventory [GoodsCount]int

// ParseInventory accepts both "[[a][b][c][d][e]]" (server) and "[a,b,c,d,e]".
func ParseInventory(s string) (Inventory, error) {
	var inv Inventory
	outer, err := protocol.Segment(s, 0)
	if err != nil {
		return inv, err
	}
	var items []string
	if strings.Contains(outer, "[") {
		items, err = protocol.Split(outer, true)
		if err != nil {
			return inv, err
		}
	} else if strings.TrimSpace(outer) != "" {
		items = strings.Split(outer, ",")
	}
	if len(items) > GoodsCount {
		return inv, fmt.Errorf("inventory has %d goods, want at most %d", len(items), GoodsCount)
	}
	for i, it := range items {
		n, err := strconv.Atoi(strings.TrimSpace(it))
		if err != nil {
			return inv, fmt.Errorf("inventory good %d: %w", i, err)
		}
		inv[i] = n
	}
	return inv, nil
}

// String is the wire form used in trade requests.
func (inv Inventory) String() string {
	parts := make([]string, GoodsCount)
	for i, n := range inv {
		parts[i] = strconv.Itoa(n)
	}
	return "[" + strings.Join(parts, ",") + "]"
}

// Describe lists the non-empty goods, e.g. "2 Salt, 1 Tea".
func (inv Inventory) Describe() string {
	var parts []string
	for i, n := range inv {
		if n > 0 {
			parts = append(parts, fmt.Sprintf("%d %s", n, goodsNames[i]))
		}
	}
	return strings.Join(parts, ", ")
}

func (inv Inventory) Weight() int {
	w := 0
	for _, n := range inv {
		w += n
	}
	return w
}

func (inv Inventory) Add(other Inventory) Inventory {
	for i := range inv {
		inv[i] += other[i]
	}
	return inv
}

func (inv Inventory) Remove(other Inventory) Inventory {
	for i := range inv {
		inv[i] -= other[i]
	}
	return inv
}

func (inv Inventory) CanRemove(other Inventory) bool {
	for i := range inv {
		if inv[i]-other[i] < 0 {
			return false
		}
	}
	return true
}

// CanAdd reports whether other still fits into a hold of the given capacity.
func (inv Inventory) CanAdd(capacity int, other Inventory) bool {
	return inv.Weight()+other.Weight() <= capacity
}

func (inv Inventory) Empty() bool { return inv.Weight() == 0 }
