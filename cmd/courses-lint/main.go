package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

var (
	codeRe = regexp.MustCompile(`^[A-Z]{4}\d{4}$`)
	yearRe = regexp.MustCompile(`^\d{4}$`)
)

type seedCourse struct {
	Code    string `json:"code"`
	Year    string `json:"year"`
	Title   string `json:"title"`
	Summary string `json:"summary"`
}

func main() {
	files, err := filepath.Glob("./seed/*.json")
	if err != nil {
		fmt.Println("error: cannot read ./seed:", err)
		os.Exit(1)
	}
	if len(files) == 0 {
		fmt.Println("no .json seed files found in ./seed")
		return
	}

	exitCode := 0
	for _, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			fmt.Printf("%s: read error: %v\n", f, err)
			exitCode = 1
			continue
		}

		var courses []seedCourse
		if err := json.Unmarshal(data, &courses); err != nil {
			fmt.Printf("%s: parse error: %v\n", f, err)
			exitCode = 1
			continue
		}

		bad := 0
		seen := make(map[string]int)
		for i, course := range courses {
			if !codeRe.MatchString(course.Code) {
				fmt.Printf("%s:[%d]: bad course code %q (want AAAA1234)\n", f, i, course.Code)
				bad++
			}
			if !yearRe.MatchString(course.Year) {
				fmt.Printf("%s:[%d]: bad year %q (want YYYY)\n", f, i, course.Year)
				bad++
			}
			if course.Title == "" {
				fmt.Printf("%s:[%d]: %s %s has no title\n", f, i, course.Code, course.Year)
				bad++
			}
			key := course.Code + " " + course.Year
			if prev, dup := seen[key]; dup {
				fmt.Printf("%s:[%d]: duplicate of entry [%d] (%s)\n", f, i, prev, key)
				bad++
			}
			seen[key] = i
		}

		if bad > 0 {
			exitCode = 1
		} else {
			fmt.Printf("%s: OK (%d courses)\n", f, len(courses))
		}
	}
	os.Exit(exitCode)
}
