// Command framekit runs the frame pipeline over image files, directories and
// webcam streams.
package main

func main() {
	Execute()
}
