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

	"github.com/google/nftlink/nlerr"
)

// Register names a slot in the kernel's per-rule evaluation register file.
// RegVerdict is the dedicated 128-bit verdict register every Immediate
// verdict load targets; Reg1..Reg4 are the legacy 128-bit registers most
// expressions still address by; the Reg32_* constants name the newer
// 32-bit-wide aliases some expressions (payload loads shorter than 16
// bytes) use instead.
type Register uint32

const (
	RegVerdict Register = 0
	Reg1       Register = 1
	Reg2       Register = 2
	Reg3       Register = 3
	Reg4       Register = 4

	Reg32_00 Register = 8
	Reg32_01 Register = 9
	Reg32_02 Register = 10
	Reg32_03 Register = 11
	Reg32_04 Register = 12
	Reg32_05 Register = 13
	Reg32_06 Register = 14
	Reg32_07 Register = 15
	Reg32_08 Register = 16
	Reg32_09 Register = 17
	Reg32_10 Register = 18
	Reg32_11 Register = 19
	Reg32_12 Register = 20
	Reg32_13 Register = 21
	Reg32_14 Register = 22
	Reg32_15 Register = 23
)

// ParseRegister validates v against the closed set of register numbers the
// kernel defines.
func ParseRegister(v uint32) (Register, error) {
	switch Register(v) {
	case RegVerdict, Reg1, Reg2, Reg3, Reg4,
		Reg32_00, Reg32_01, Reg32_02, Reg32_03, Reg32_04, Reg32_05, Reg32_06, Reg32_07,
		Reg32_08, Reg32_09, Reg32_10, Reg32_11, Reg32_12, Reg32_13, Reg32_14, Reg32_15:
		return Register(v), nil
	default:
		return 0, fmt.Errorf("%w: %d", nlerr.ErrUnknownRegister, v)
	}
}
