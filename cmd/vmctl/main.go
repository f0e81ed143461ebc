// Command vmctl replays allocation scripts against the memory runtime.
package main

func main() {
	execute()
}
