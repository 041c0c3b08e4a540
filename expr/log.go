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

	"github.com/google/nftlink/internal/optional"
	"github.com/google/nftlink/nlattr"
	"github.com/google/nftlink/nlenc"
	"github.com/google/nftlink/nlerr"
)

const (
	attrLogGroup  uint16 = 1
	attrLogPrefix uint16 = 2
	attrLogLevel  uint16 = 5
)

// Log records a packet to the kernel log (or nfnetlink_log group) without
// affecting the chain's verdict. Every field is optional: an empty Log
// expression logs with the kernel's defaults.
type Log struct {
	Prefix optional.Value[string]
	Group  optional.Value[uint16]
	Level  optional.Value[uint32]
}

// maxLogPrefix is the kernel's NF_LOG_PREFIXLEN - 1: the longest prefix
// string the logging subsystem accepts.
const maxLogPrefix = 127

// NewLog returns a Log expression whose Prefix is prefix (left absent when
// prefix is empty) and whose other fields are unset, or
// ErrLogPrefixTooLong if prefix exceeds the kernel's 127-byte limit.
func NewLog(prefix string) (*Log, error) {
	if len(prefix) > maxLogPrefix {
		return nil, fmt.Errorf("%w: prefix is %d bytes", nlerr.ErrLogPrefixTooLong, len(prefix))
	}
	l := &Log{}
	if prefix != "" {
		l.Prefix.Set(prefix)
	}
	return l, nil
}

func (l *Log) Name() string { return "log" }

func (l *Log) dataSize() int {
	n := 0
	if v, ok := l.Prefix.Get(); ok {
		n += nlattr.Size(len(v))
	}
	if _, ok := l.Group.Get(); ok {
		n += nlattr.Size(2)
	}
	if _, ok := l.Level.Get(); ok {
		n += nlattr.Size(4)
	}
	return n
}

func (l *Log) writeData(b *nlattr.Builder) {
	if v, ok := l.Prefix.Get(); ok {
		b.String(attrLogPrefix, v)
	}
	if v, ok := l.Group.Get(); ok {
		b.Uint16(attrLogGroup, v)
	}
	if v, ok := l.Level.Get(); ok {
		b.Uint32(attrLogLevel, v)
	}
}

func decodeLog(payload []byte) (Expression, error) {
	var l Log
	err := nlattr.Decode(payload, func(a nlattr.Attr) error {
		switch a.Type {
		case attrLogPrefix:
			l.Prefix.Set(nlenc.String(a.Payload))
		case attrLogGroup:
			v, err := nlenc.Uint16(a.Payload)
			if err != nil {
				return err
			}
			l.Group.Set(v)
		case attrLogLevel:
			v, err := nlenc.Uint32(a.Payload)
			if err != nil {
				return err
			}
			l.Level.Set(v)
		default:
			return fmt.Errorf("%w: log attr %d", nlerr.ErrUnsupportedAttributeType, a.Type)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func init() {
	register("log", decodeLog)
}
