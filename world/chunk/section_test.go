package chunk

import "testing"

func TestSectionBlockRoundTrip(t *testing.T) {
	s := NewSection(0, 0)
	s.setBlock(3, 10, 7, 55)
	s.setBlock(0, 0, 0, 1)
	if got := s.Block(3, 10, 7); got != 55 {
		t.Fatalf("Block(3,10,7) = %d, want 55", got)
	}
	if got := s.Block(0, 0, 0); got != 1 {
		t.Fatalf("Block(0,0,0) = %d, want 1", got)
	}
	if got := s.Block(15, 15, 15); got != 0 {
		t.Fatalf("untouched Block(15,15,15) = %d, want default 0", got)
	}
}

func TestSectionBiomeRoundTrip(t *testing.T) {
	s := NewSection(0, 0)
	s.SetBiome(1, 2, 3, 9)
	if got := s.Biome(1, 2, 3); got != 9 {
		t.Fatalf("Biome(1,2,3) = %d, want 9", got)
	}
	if got := s.Biome(0, 0, 0); got != 0 {
		t.Fatalf("untouched Biome(0,0,0) = %d, want 0", got)
	}
}

func TestSectionLightArraysLazyAndIndependent(t *testing.T) {
	s := NewSection(0, 0)
	s.BlockLight().Set(1, 1, 1, 12)
	if got := s.BlockLight().Get(1, 1, 1); got != 12 {
		t.Fatalf("block light round trip failed, got %d", got)
	}
	if got := s.SkyLight().Get(1, 1, 1); got != 0 {
		t.Fatalf("sky light should be independent of block light, got %d", got)
	}
}

func TestBlockIndexDoesNotCollideAcrossCoordinates(t *testing.T) {
	seen := make(map[int]bool)
	for x := 0; x < 16; x += 5 {
		for y := 0; y < 16; y += 5 {
			for z := 0; z < 16; z += 5 {
				idx := blockIndex(x, y, z)
				if seen[idx] {
					t.Fatalf("blockIndex(%d,%d,%d) collided with a previous index", x, y, z)
				}
				seen[idx] = true
			}
		}
	}
}
