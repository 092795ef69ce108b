// Command hxnav serves the demo blog and checks hxnav config files.
//
// Usage:
//
//	hxnav serve --config hxnav.yaml
//	hxnav validate --config hxnav.yaml
//	hxnav render /articles/hello-world
//	hxnav version
package main

func main() {
	Execute()
}
