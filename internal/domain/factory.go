// Package domain factory.go contains the Factory that mints new ObjectIDs.
package domain

import (
	"crypto/md5"
	"encoding/binary"
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Factory mints ObjectIDs for one process. The machine hash and process bytes
// are fixed at construction; the counter is the only state mutated per call,
// so a Factory is safe for concurrent use. Construct one per process (or per
// isolated test) and pass it to whatever needs to mint ids.
type Factory struct {
	machine [3]byte
	process [2]byte
	counter atomic.Uint32
	now     func() time.Time
}

// NewFactory returns a Factory whose identity is derived from hostname and
// pid. now supplies the wall clock; nil means time.Now.
func NewFactory(hostname string, pid int, now func() time.Time) *Factory {
	if now == nil {
		now = time.Now
	}
	f := &Factory{now: now}
	sum := md5.Sum([]byte(hostname))
	copy(f.machine[:], sum[:3])
	var p [4]byte
	binary.BigEndian.PutUint32(p[:], uint32(int32(pid)))
	copy(f.process[:], p[2:4])
	return f
}

// NewProcessFactory returns a Factory for the running process. hostname
// overrides the OS host name when non-empty.
func NewProcessFactory(hostname string, now func() time.Time) (*Factory, error) {
	if hostname == "" {
		h, err := os.Hostname()
		if err != nil {
			return nil, fmt.Errorf("resolve hostname: %w", err)
		}
		hostname = h
	}
	return NewFactory(hostname, os.Getpid(), now), nil
}

// NewID returns a fresh ObjectID. Concurrent callers never observe the same
// counter value; the 24 bits kept in the id wrap after 16,777,216 calls.
func (f *Factory) NewID() ObjectID {
	var raw [Size]byte
	binary.BigEndian.PutUint32(raw[0:4], uint32(f.now().Unix()))
	copy(raw[4:7], f.machine[:])
	copy(raw[7:9], f.process[:])
	var c [4]byte
	binary.BigEndian.PutUint32(c[:], f.counter.Add(1))
	copy(raw[9:12], c[1:4])
	return FromArray(raw)
}

// MachineHash returns the three host hash bytes embedded in every id.
func (f *Factory) MachineHash() [3]byte { return f.machine }

// ProcessBytes returns the two process id bytes embedded in every id.
func (f *Factory) ProcessBytes() [2]byte { return f.process }
