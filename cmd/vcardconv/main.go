// cmd/vcardconv/main.go
//
// Standalone converter between vCard files and the delimited contact
// format, sharing the exact parsing rules the import endpoint uses.
//
//	vcardconv totsv contacts.vcf > contacts.tsv
//	vcardconv tovcard -version 4.0 contacts.tsv > contacts.vcf
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/davencourt/mailliste-backend/internal/service"
	"github.com/davencourt/mailliste-backend/internal/vcard"
)

func main() {
	log.SetFlags(0)
	if len(os.Args) < 2 {
		usage()
	}

	cmd := os.Args[1]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	version := fs.String("version", "3.0", "vCard version to write (3.0 or 4.0)")
	csvOut := fs.Bool("csv", false, "write comma-separated output instead of tabs")
	fs.Parse(os.Args[2:])

	if fs.NArg() != 1 {
		usage()
	}
	in, err := os.Open(fs.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	defer in.Close()

	switch cmd {
	case "totsv":
		contacts, err := vcard.Decode(in)
		if err != nil {
			log.Fatal(err)
		}
		comma := '\t'
		if *csvOut {
			comma = ','
		}
		if err := service.WriteDelimited(os.Stdout, contacts, comma); err != nil {
			log.Fatal(err)
		}
	case "tovcard":
		contacts, err := service.ParseDelimited(in)
		if err != nil {
			log.Fatal(err)
		}
		if err := vcard.Encode(os.Stdout, contacts, *version); err != nil {
			log.Fatal(err)
		}
	default:
		usage()
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: vcardconv totsv [-csv] FILE | tovcard [-version 3.0|4.0] FILE")
	os.Exit(2)
}
