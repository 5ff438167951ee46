package input

import (
	"encoding/binary"
	"log"
	"os"
	"syscall"
)

// https://github.com/torvalds/linux/blob/master/include/uapi/linux/input-event-codes.h
const evKey = 0x01

const (
	valueRelease = 0
	valuePress   = 1
)

type keyEvent struct {
	Time  syscall.Timeval
	Type  uint16
	Code  uint16
	Value int32
}

type Event struct {
	Pressed  bool
	Released bool
	Code     uint16
	Time     syscall.Timeval
}

// ReadInput streams key press and release events from an evdev device
// node. Autorepeat events carry neither flag and can be ignored by the
// consumer.
func ReadInput(kbd string, events chan *Event) error {
	file, err := os.Open(kbd)
	if nil != err {
		return err
	}
	go func() {
		defer file.Close()

		var ev keyEvent
		for {
			err = binary.Read(file, binary.LittleEndian, &ev)
			if nil != err {
				log.Println("unable to read keyboard input:", err)
				return
			}
			if ev.Type != evKey {
				continue
			}
			events <- &Event{
				Pressed:  ev.Value == valuePress,
				Released: ev.Value == valueRelease,
				Code:     ev.Code,
				Time:     ev.Time,
			}
		}
	}()
	return nil
}
