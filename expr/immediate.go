/*
Copyright 2026 Google LLC

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

    https://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

package expr

import (
	"fmt"

	"github.com/google/nftlink/ndata"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

// VerdictCode is the terminal or non-terminal outcome an Immediate load
// into RegVerdict carries.
type VerdictCode int32

const (
	VerdictContinue VerdictCode = -1
	VerdictReturn   VerdictCode = -2
	VerdictDrop     VerdictCode = 0
	VerdictAccept   VerdictCode = 1
	VerdictJump     VerdictCode = -3
	VerdictGoto     VerdictCode = -4
)

// ParseVerdictCode validates v against the closed set of verdict codes.
func ParseVerdictCode(v int32) (VerdictCode, error) {
	switch VerdictCode(v) {
	case VerdictContinue, VerdictReturn, VerdictDrop, VerdictAccept, VerdictJump, VerdictGoto:
		return VerdictCode(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownVerdictCode, v)
	}
}

const (
	attrImmediateDreg uint16 = 1
	attrImmediateData uint16 = 2
)

// Immediate loads a constant into a register: either raw bytes (Value),
// later consumed by a Bitwise or Nat, or a verdict (Verdict) loaded into
// RegVerdict to terminate the rule's evaluation.
//
// Exactly one of Value or Verdict is set; the constructors enforce this so
// the zero Immediate is never mistaken for a valid one.
type Immediate struct {
	DReg    Register
	Value   []byte
	Verdict *ndata.Verdict
}

// NewImmediateValue returns an Immediate loading value into dreg.
func NewImmediateValue(dreg Register, value []byte) *Immediate {
	return &Immediate{DReg: dreg, Value: value}
}

// NewImmediateVerdict returns an Immediate loading a terminal or
// non-terminal verdict into RegVerdict.
func NewImmediateVerdict(code VerdictCode, chain string) *Immediate {
	return &Immediate{DReg: RegVerdict, Verdict: &ndata.Verdict{Code: int32(code), Chain: chain}}
}

func (im *Immediate) Name() string { return "immediate" }

func (im *Immediate) dataSize() int {
	inner := 0
	if im.Verdict != nil {
		inner = ndata.VerdictSize(len(im.Verdict.Chain))
	} else {
		inner = ndata.ValueSize(len(im.Value))
	}
	return nlattr.Size(4) + inner
}

func (im *Immediate) writeData(b *nlattr.Builder) {
	b.Uint32(attrImmediateDreg, uint32(im.DReg))
	if im.Verdict != nil {
		ndata.WriteVerdict(b, attrImmediateData, *im.Verdict)
	} else {
		ndata.WriteValue(b, attrImmediateData, im.Value)
	}
}

func decodeImmediate(payload []byte) (Expression, error) {
	var im Immediate
	var haveDreg, haveData bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrImmediateDreg:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			reg, err := ParseRegister(v)
			if err != nil {
				return err
			}
			im.DReg = reg
			haveDreg = true
		case attrImmediateData:
			value, verdict, err := ndata.Decode(a.Payload)
			if err != nil {
				return err
			}
			if verdict != nil {
				code, err := ParseVerdictCode(verdict.Code)
				if err != nil {
					return err
				}
				verdict.Code = int32(code)
				im.Verdict = verdict
			} else {
				im.Value = value
			}
			haveData = true
		default:
			return fmt.Errorf("%w: immediate attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveDreg || !haveData {
		return nil, fmt.Errorf("%w: immediate dreg/data", nlerr.ErrMissingRequiredAttribute)
	}
	return &im, nil
}

func init() {
	register("immediate", decodeImmediate)
}
