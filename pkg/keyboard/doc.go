// Package keyboard assembles the full virtual-keyboard stack above one
// transport port: SysEx7 reassembly and fragmentation, the MIDI-CI device
// session, the property request tracker and the connection state monitor,
// plus MIDI 2.0 note sending.
//
// A Controller is wired once and then driven from two directions: the
// transport's receive goroutine feeds packets in, and the application
// calls note and query methods. Configure loggers before Start; the
// packet path reads them without synchronization.
package keyboard
