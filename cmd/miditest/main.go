package main

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"time"

	gomidi "gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"

	"go-hemisphere/midi"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		return
	}

	switch os.Args[1] {
	case "list":
		listPorts()
	case "monitor":
		monitor(arg(2))
	case "note":
		sendNote(arg(2))
	case "poll":
		pollDevices()
	default:
		usage()
	}
}

func arg(i int) string {
	if len(os.Args) > i {
		return os.Args[i]
	}
	return ""
}

func usage() {
	fmt.Println("MIDI Test Scripts")
	fmt.Println("")
	fmt.Println("Commands:")
	fmt.Println("  list            - List MIDI and serial ports")
	fmt.Println("  monitor [name]  - Print decoded messages from an input")
	fmt.Println("  note <name>     - Send middle C to an output or serial device (/dev/...)")
	fmt.Println("  poll            - Poll for device changes")
}

func listPorts() {
	fmt.Println("=== MIDI Input Ports ===")
	fmt.Println("(waiting up to 3 seconds...)")

	type result struct {
		ins  []drivers.In
		outs []drivers.Out
	}
	ch := make(chan result, 1)
	go func() {
		ins := gomidi.GetInPorts()
		outs := gomidi.GetOutPorts()
		ch <- result{ins: ins, outs: outs}
	}()

	select {
	case r := <-ch:
		for i, p := range r.ins {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
		fmt.Println("\n=== MIDI Output Ports ===")
		for i, p := range r.outs {
			fmt.Printf("  %d: %s\n", i, p.String())
		}
	case <-time.After(3 * time.Second):
		fmt.Println("\nTIMEOUT! The MIDI service is not answering.")
	}

	fmt.Println("\n=== Serial Ports ===")
	ports, err := midi.ListSerialPorts()
	if err != nil {
		fmt.Printf("  error: %v\n", err)
		return
	}
	for i, p := range ports {
		fmt.Printf("  %d: %s\n", i, p)
	}
}

func findIn(name string) drivers.In {
	for _, p := range gomidi.GetInPorts() {
		if name == "" || strings.Contains(strings.ToLower(p.String()), strings.ToLower(name)) {
			return p
		}
	}
	return nil
}

func monitor(name string) {
	in := findIn(name)
	if in == nil {
		fmt.Println("No matching input")
		return
	}
	fmt.Printf("Listening on %s. Ctrl+C to exit.\n", in.String())

	stop, err := gomidi.ListenTo(in, func(msg gomidi.Message, timestampms int32) {
		m, ok := midi.Decode(msg)
		if !ok {
			fmt.Printf("%8dms  (unsupported) %s\n", timestampms, msg.String())
			return
		}
		if m.Status == midi.Clock {
			return
		}
		fmt.Printf("%8dms  ch%-2d %s\n", timestampms, m.Channel, midi.LogEntry{Status: m.Status, Data1: m.Data1, Data2: m.Data2})
	}, gomidi.UseSysEx())
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	defer stop()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt)
	<-sig
}

func sendNote(name string) {
	if name == "" {
		usage()
		return
	}

	var out midi.Sender
	if strings.HasPrefix(name, "/dev/") || strings.HasPrefix(strings.ToUpper(name), "COM") {
		sp, err := midi.OpenSerial(name, midi.DINBaud)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		defer sp.Close()
		out = sp
	} else {
		o, err := midi.OpenOutput(name)
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		out = o
	}

	fmt.Println("Sending C4 for half a second...")
	if err := out.Send(gomidi.NoteOn(0, 60, 100)); err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	time.Sleep(500 * time.Millisecond)
	out.Send(gomidi.NoteOff(0, 60))
	fmt.Println("Done!")
}

func pollDevices() {
	fmt.Println("Polling for device changes every 2 seconds...")
	fmt.Println("Connect/disconnect a device to test. Ctrl+C to exit.")

	lastIn := ""
	lastOut := ""

	for {
		ins := gomidi.GetInPorts()
		outs := gomidi.GetOutPorts()

		// Build current state
		var inNames, outNames []string
		for _, p := range ins {
			inNames = append(inNames, p.String())
		}
		for _, p := range outs {
			outNames = append(outNames, p.String())
		}

		currentIn := strings.Join(inNames, ",")
		currentOut := strings.Join(outNames, ",")

		if currentIn != lastIn || currentOut != lastOut {
			fmt.Printf("\n[%s] Device change detected!\n", time.Now().Format("15:04:05"))
			fmt.Printf("  Inputs: %v\n", inNames)
			fmt.Printf("  Outputs: %v\n", outNames)

			lastIn = currentIn
			lastOut = currentOut
		}

		time.Sleep(2 * time.Second)
	}
}
