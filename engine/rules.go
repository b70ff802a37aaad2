package engine

import "fmt"

const (
	SectorsPerSide = 3
	SectorCount    = SectorsPerSide * SectorsPerSide

	// MaxKernelRange keeps a kernel (2r+1 cells wide) inside one Grid.
	MaxKernelRange = (MaxCols - 1) / 2
)

// MaskConfig holds the rule constants the static masks are derived from.
type MaskConfig struct {
	TorpedoRange int // Manhattan radius of a torpedo shot
	StealthRange int // longest silence move, in cells
	// StealthZeroMove allows a silence of length zero, so the origin cell
	// stays a candidate after the opponent goes silent.
	StealthZeroMove bool
}

// DefaultMaskConfig returns the standard Ocean of Code rules.
func DefaultMaskConfig() MaskConfig {
	return MaskConfig{
		TorpedoRange:    4,
		StealthRange:    4,
		StealthZeroMove: true,
	}
}

// Validate rejects ranges that cannot be represented as a kernel.
func (c MaskConfig) Validate() error {
	if c.TorpedoRange < 0 || c.TorpedoRange > MaxKernelRange {
		return fmt.Errorf("%w: torpedo range %d (0..%d)", ErrInvalidConfig, c.TorpedoRange, MaxKernelRange)
	}
	if c.StealthRange < 0 || c.StealthRange > MaxKernelRange {
		return fmt.Errorf("%w: stealth range %d (0..%d)", ErrInvalidConfig, c.StealthRange, MaxKernelRange)
	}
	return nil
}

// ValidSector reports whether id names one of the nine sectors.
func ValidSector(id int) bool { return id >= 1 && id <= SectorCount }
