// Command dfm serves and browses virtual directory trees described by XML
// explorer documents.
package main

func main() {
	Execute()
}
