// internal/records/frequency.go
package records

import (
	"encoding/binary"
	"fmt"
	"math"
	"strings"

	"github.com/tamzrod/uhf-replicator/internal/protocol"
)

// Region is a regulatory band. Frequencies are kept in kHz so the derived
// channel plan is exact.
type Region struct {
	Name     string
	Code     uint8
	StartKHz uint32
	EndKHz   uint32
	Channels int
}

var (
	RegionUSA      = Region{"USA", 0x01, 902750, 927250, 50}
	RegionKorea    = Region{"Korea", 0x02, 917100, 923300, 32}
	RegionEurope   = Region{"Europe", 0x03, 865100, 867900, 15}
	RegionJapan    = Region{"Japan", 0x04, 952200, 953600, 8}
	RegionMalaysia = Region{"Malaysia", 0x05, 919500, 922500, 7}
	RegionEurope3  = Region{"Europe 3", 0x06, 865700, 867500, 4}
	RegionChina1   = Region{"China 1", 0x07, 840125, 844875, 20}
	RegionChina2   = Region{"China 2", 0x08, 920125, 924875, 20}
)

// RegionCustom is a reader-defined window with no channel plan. Readers
// may report it; it cannot be written back.
var RegionCustom = Region{"Custom", 0x00, 840000, 960000, 0}

// Regions lists the supported bands in device order.
var Regions = []Region{
	RegionUSA, RegionKorea, RegionEurope, RegionJapan,
	RegionMalaysia, RegionEurope3, RegionChina1, RegionChina2,
}

func RegionByCode(code uint8) (Region, bool) {
	for _, r := range Regions {
		if r.Code == code {
			return r, true
		}
	}
	return Region{}, false
}

// regionForCode never fails: unknown codes keep their value and get no
// channel plan.
func regionForCode(code uint8) Region {
	if r, ok := RegionByCode(code); ok {
		return r
	}
	if code == RegionCustom.Code {
		return RegionCustom
	}
	return Region{Name: fmt.Sprintf("Region(0x%02X)", code), Code: code}
}

func RegionByName(name string) (Region, bool) {
	for _, r := range Regions {
		if strings.EqualFold(r.Name, name) {
			return r, true
		}
	}
	return Region{}, false
}

func (r Region) String() string { return r.Name }

// StepKHz is (end-start)/(n-1) rounded to 10 kHz.
func (r Region) StepKHz() uint32 {
	if r.Channels < 2 {
		return 0
	}
	step := float64(r.EndKHz-r.StartKHz) / float64(r.Channels-1)
	return uint32(math.Round(step/10) * 10)
}

// ChannelsMHz derives the full channel plan as start + i*step.
func (r Region) ChannelsMHz() []float64 {
	out := make([]float64, r.Channels)
	step := r.StepKHz()
	for i := range out {
		out[i] = float64(r.StartKHz+uint32(i)*step) / 1000
	}
	return out
}

// Contains reports whether khz is a channel of the region.
func (r Region) Contains(khz uint32) bool {
	step := r.StepKHz()
	if step == 0 || khz < r.StartKHz || khz > r.EndKHz {
		return false
	}
	return (khz-r.StartKHz)%step == 0
}

// Frequency is the hopping window of a region.
//
//	[region][min_int u16][min_frac_khz u16][step_khz u16][channel_count]
type Frequency struct {
	Region Region
	MinKHz uint32
	MaxKHz uint32
}

// ChannelCount is derived from the min/max pair and the region step.
func (f Frequency) ChannelCount() int {
	step := f.Region.StepKHz()
	if step == 0 || f.MaxKHz < f.MinKHz {
		return 0
	}
	return int((f.MaxKHz-f.MinKHz)/step) + 1
}

// ChannelsMHz derives the channels between min and max.
func (f Frequency) ChannelsMHz() []float64 {
	n := f.ChannelCount()
	step := f.Region.StepKHz()
	out := make([]float64, n)
	for i := range out {
		out[i] = float64(f.MinKHz+uint32(i)*step) / 1000
	}
	return out
}

func (f Frequency) Validate() error {
	if _, ok := RegionByCode(f.Region.Code); !ok {
		return protocol.Invalid("frequency.region", f.Region.Code, "unknown region")
	}
	if f.MinKHz > f.MaxKHz {
		return protocol.Invalid("frequency.min", f.MinKHz, "above max")
	}
	if !f.Region.Contains(f.MinKHz) {
		return protocol.Invalid("frequency.min", f.MinKHz, "not a channel of "+f.Region.Name)
	}
	if !f.Region.Contains(f.MaxKHz) {
		return protocol.Invalid("frequency.max", f.MaxKHz, "not a channel of "+f.Region.Name)
	}
	if n := f.ChannelCount(); n > 0xFF {
		return protocol.Invalid("frequency.channels", n, "exceeds 255")
	}
	return nil
}

func (f Frequency) MarshalBinary() ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	out := make([]byte, FrequencySize)
	out[0] = f.Region.Code
	binary.BigEndian.PutUint16(out[1:3], uint16(f.MinKHz/1000))
	binary.BigEndian.PutUint16(out[3:5], uint16(f.MinKHz%1000))
	binary.BigEndian.PutUint16(out[5:7], uint16(f.Region.StepKHz()))
	out[7] = byte(f.ChannelCount())
	return out, nil
}

// UnmarshalBinary decodes whatever window the reader holds, including
// custom regions and windows off the channel plan. Validate before writing
// it back.
func (f *Frequency) UnmarshalBinary(b []byte) error {
	if err := needLen("frequency", b, FrequencySize); err != nil {
		return err
	}
	count := uint32(b[7])
	step := uint32(binary.BigEndian.Uint16(b[5:7]))
	minKHz := uint32(binary.BigEndian.Uint16(b[1:3]))*1000 + uint32(binary.BigEndian.Uint16(b[3:5]))

	f.Region = regionForCode(b[0])
	f.MinKHz = minKHz
	f.MaxKHz = minKHz
	if count > 1 {
		f.MaxKHz += (count - 1) * step
	}
	return nil
}

func (f Frequency) String() string {
	return fmt.Sprintf("%s %.3f-%.3f MHz (%d ch)", f.Region.Name,
		float64(f.MinKHz)/1000, float64(f.MaxKHz)/1000, f.ChannelCount())
}
