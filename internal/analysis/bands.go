package analysis

// Band is a half-open frequency range [LowHz, HighHz).
type Band struct {
	Name   string  `yaml:"name" json:"name"`
	LowHz  float64 `yaml:"low_hz" json:"lowHz"`
	HighHz float64 `yaml:"high_hz" json:"highHz"`
}

// Contains reports whether freq falls inside the band.
func (b Band) Contains(freq float64) bool {
	return freq >= b.LowHz && freq < b.HighHz
}

// BandShares returns, for each band, its share of total spectral power
// (magnitude squared) excluding the DC bin. A silent spectrum yields zeros.
func BandShares(s *Spectrum, magnitudes []float64, bands []Band) []float64 {
	shares := make([]float64, len(bands))
	var total float64
	for i := 1; i < len(magnitudes); i++ {
		power := magnitudes[i] * magnitudes[i]
		total += power
		freq := s.BinFrequency(i)
		for j, b := range bands {
			if b.Contains(freq) {
				shares[j] += power
			}
		}
	}
	if total == 0 {
		return shares
	}
	for j := range shares {
		shares[j] /= total
	}
	return shares
}
