package buildinfo

import "fmt"

// Set with -ldflags "-X routeopt/internal/buildinfo.Version=..." at build time.
var (
    Version = "dev"
    Commit  = ""
    BuiltAt = ""
)

func Info() map[string]string {
    return map[string]string{
        "version": Version,
        "commit":  Commit,
        "builtAt": BuiltAt,
    }
}

// String is the one-line form printed by the version command.
func String() string {
    s := "routeopt " + Version
    if Commit != "" {
        c := Commit
        if len(c) > 12 { c = c[:12] }
        s += fmt.Sprintf(" (%s)", c)
    }
    if BuiltAt != "" { s += " built " + BuiltAt }
    return s
}
