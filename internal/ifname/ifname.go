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

// Package ifname validates network interface names against the kernel's
// IFNAMSIZ limit, for package ruleutil's interface-name matchers.
package ifname

import (
	"fmt"

	"github.com/google/nftlink/nlerr"
)

// MaxLen is IFNAMSIZ: the kernel null-terminates interface names in a
// 16-byte buffer, so the longest name that fits (leaving room for the
// terminator) is 15 bytes.
const MaxLen = 16

// Validate returns nlerr.ErrNameTooLong if name is at or above MaxLen.
// Names strictly shorter than MaxLen are accepted, per the design's
// testable property 8.
func Validate(name string) error {
	if len(name) >= MaxLen {
		return fmt.Errorf("%w: interface name %q is %d bytes, must be < %d", nlerr.ErrNameTooLong, name, len(name), MaxLen)
	}
	return nil
}
