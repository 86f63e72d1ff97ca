package frame

import "sync"

// Hardware is the boundary the frame reads and writes once per tick
type Hardware interface {
	ReadDigital(ch int) bool
	ReadADC(ch int) int
	WriteDAC(ch int, value, octave int)
}

// Sim is in-memory hardware. Inputs can be set from other goroutines
// (a UI, a test); the tick loop reads and writes under the same lock.
type Sim struct {
	mu      sync.Mutex
	digital [NumDigital]bool
	adc     [NumADC]int
	dac     [NumDAC]int
	writes  int
}

// NewSim returns idle simulated hardware
func NewSim() *Sim {
	return &Sim{}
}

func (s *Sim) ReadDigital(ch int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.digital[ch]
}

func (s *Sim) ReadADC(ch int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adc[ch]
}

// WriteDAC stores a pitch code, shifted by whole octaves
func (s *Sim) WriteDAC(ch int, value, octave int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dac[ch] = value + octave*(12<<7)
	s.writes++
}

// SetDigital drives a digital input line
func (s *Sim) SetDigital(ch int, high bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.digital[ch] = high
}

// SetADC drives an analog input with a pitch code
func (s *Sim) SetADC(ch int, value int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.adc[ch] = value
}

// DAC returns the last value written to an output
func (s *Sim) DAC(ch int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dac[ch]
}

// Writes returns the number of DAC writes so far
func (s *Sim) Writes() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.writes
}
