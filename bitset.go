package keybus

// Bitset stores per-entity boolean state in banks of 8 bits, with a
// parallel mask tracking which bits changed since they were last
// published. Indexes are 1-based to match panel numbering: bit n lives
// in bank (n-1)/8 at position (n-1)%8.
type Bitset struct {
	bits    []byte
	changed []byte
	size    int
}

func NewBitset(size int) *Bitset {
	banks := (size + 7) / 8
	return &Bitset{
		bits:    make([]byte, banks),
		changed: make([]byte, banks),
		size:    size,
	}
}

func (b *Bitset) Size() int { return b.size }

func (b *Bitset) locate(n int) (bank int, mask byte) {
	return (n - 1) / 8, 1 << ((n - 1) % 8)
}

// Set updates bit n and marks it changed when the value differs from
// what is already stored. It reports whether the bit actually changed.
// Out of range indexes are ignored.
func (b *Bitset) Set(n int, on bool) bool {
	if n < 1 || n > b.size {
		return false
	}
	bank, mask := b.locate(n)
	if on == (b.bits[bank]&mask > 0) {
		return false
	}
	if on {
		b.bits[bank] |= mask
	} else {
		b.bits[bank] &^= mask
	}
	b.changed[bank] |= mask
	return true
}

func (b *Bitset) Get(n int) bool {
	if n < 1 || n > b.size {
		return false
	}
	bank, mask := b.locate(n)
	return b.bits[bank]&mask > 0
}

func (b *Bitset) Changed(n int) bool {
	if n < 1 || n > b.size {
		return false
	}
	bank, mask := b.locate(n)
	return b.changed[bank]&mask > 0
}

func (b *Bitset) ClearChanged(n int) {
	if n < 1 || n > b.size {
		return
	}
	bank, mask := b.locate(n)
	b.changed[bank] &^= mask
}

func (b *Bitset) AnyChanged() bool {
	for _, bank := range b.changed {
		if bank > 0 {
			return true
		}
	}
	return false
}

// EachChanged calls fn for every bit whose changed marker is set, in
// index order, with the bit's current value. fn may clear markers as
// it goes; already visited positions are unaffected.
func (b *Bitset) EachChanged(fn func(n int, on bool)) {
	for bank := range b.changed {
		for bit := 0; bit < 8; bit++ {
			n := bank*8 + bit + 1
			if n > b.size {
				return
			}
			mask := byte(1) << bit
			if b.changed[bank]&mask > 0 {
				fn(n, b.bits[bank]&mask > 0)
			}
		}
	}
}
