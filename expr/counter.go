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

	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

const (
	attrCounterBytes   uint16 = 1
	attrCounterPackets uint16 = 2
)

// Counter accumulates per-rule byte and packet counts. Building a fresh
// rule with a zeroed Counter primes the kernel's accounting; decoding one
// out of a GETRULE dump returns the live totals.
type Counter struct {
	Bytes, Packets uint64
}

func (c *Counter) Name() string { return "counter" }

func (c *Counter) dataSize() int {
	return nlattr.Size(8) * 2
}

func (c *Counter) writeData(b *nlattr.Builder) {
	b.Uint64(attrCounterBytes, c.Bytes)
	b.Uint64(attrCounterPackets, c.Packets)
}

func decodeCounter(payload []byte) (Expression, error) {
	var c Counter
	var haveBytes, havePackets bool
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrCounterBytes:
			v, err := nlenc.Uint64(a.Payload)
			if err != nil {
				return err
			}
			c.Bytes = v
			haveBytes = true
		case attrCounterPackets:
			v, err := nlenc.Uint64(a.Payload)
			if err != nil {
				return err
			}
			c.Packets = v
			havePackets = true
		default:
			return fmt.Errorf("%w: counter attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	if !haveBytes || !havePackets {
		return nil, fmt.Errorf("%w: counter bytes/packets", nlerr.ErrMissingRequiredAttribute)
	}
	return &c, nil
}

func init() {
	register("counter", decodeCounter)
}
