// Package ibus exposes the input method to IBus over D-Bus.
//
// ibus-daemon starts the component, calls Factory.CreateEngine for each input
// context and then drives the returned Engine object with key events. The
// engine answers through signals: committed text, the preedit string and the
// rendered candidate window as auxiliary text.
package ibus

import (
	"github.com/godbus/dbus/v5"
)

// IBus D-Bus names
const (
	IBusService          = "org.freedesktop.IBus"
	IBusPath             = "/org/freedesktop/IBus"
	IBusFactoryInterface = "org.freedesktop.IBus.Factory"
	IBusEngineInterface  = "org.freedesktop.IBus.Engine"
	IBusServiceInterface = "org.freedesktop.IBus.Service"

	FactoryPath    dbus.ObjectPath = "/org/freedesktop/IBus/Factory"
	EnginePathBase                 = "/org/freedesktop/IBus/Engine/"

	BusName       = "org.freedesktop.IBus.Imebridge"
	EngineName    = "imebridge"
	EngineVersion = "0.1.0"
)

// IBus key event state masks
const (
	ShiftMask   uint32 = 1 << 0
	LockMask    uint32 = 1 << 1
	ControlMask uint32 = 1 << 2
	Mod1Mask    uint32 = 1 << 3 // Alt
	Mod4Mask    uint32 = 1 << 6 // Super
	ReleaseMask uint32 = 1 << 30
)

// Preedit commit modes for UpdatePreeditText.
const (
	PreeditClear  uint32 = 0
	PreeditCommit uint32 = 1
)

// Bus is the part of a D-Bus connection the adapter uses. *dbus.Conn
// satisfies it.
type Bus interface {
	Export(v interface{}, path dbus.ObjectPath, iface string) error
	Emit(path dbus.ObjectPath, name string, values ...interface{}) error
}

// Text is the wire form of IBusText: a serializable object name, its
// attachments, the string and an attribute list.
type Text struct {
	Name        string
	Attachments map[string]dbus.Variant
	Text        string
	Attributes  dbus.Variant
}

// AttrList is the wire form of IBusAttrList.
type AttrList struct {
	Name        string
	Attachments map[string]dbus.Variant
	Attributes  []dbus.Variant
}

// NewText wraps s for an IBus signal argument.
func NewText(s string) dbus.Variant {
	return dbus.MakeVariant(Text{
		Name:        "IBusText",
		Attachments: map[string]dbus.Variant{},
		Text:        s,
		Attributes: dbus.MakeVariant(AttrList{
			Name:        "IBusAttrList",
			Attachments: map[string]dbus.Variant{},
			Attributes:  []dbus.Variant{},
		}),
	})
}
