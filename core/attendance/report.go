package attendance

import (
	"fmt"
	"strings"

	"github.com/ssacademy/backoffice/core"
	"github.com/ssacademy/backoffice/core/batch"
)

const reportDateLayout = "02 Jan 2006"

// BuildReport renders the shareable summary of a batch submission.
// Students are listed in submission order under their status.
func BuildReport(b batch.Batch, date core.Date, members []batch.Member, entries []Entry) string {
	names := make(map[int]string, len(members))
	for _, m := range members {
		names[m.ID] = m.Name
	}

	var present, absent []string
	for _, e := range entries {
		name, ok := names[e.StudentID]
		if !ok {
			name = fmt.Sprintf("Student #%d", e.StudentID)
		}
		if e.Status == Present {
			present = append(present, name)
		} else {
			absent = append(absent, name)
		}
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Attendance Report - %s\n", b.Name)
	fmt.Fprintf(&sb, "Date: %s\n", date.Format(reportDateLayout))
	writeSection(&sb, "Present", present)
	writeSection(&sb, "Absent", absent)
	fmt.Fprintf(&sb, "\nTotal: %d | Present: %d | Absent: %d", len(entries), len(present), len(absent))
	return sb.String()
}

func writeSection(sb *strings.Builder, title string, names []string) {
	fmt.Fprintf(sb, "\n%s (%d):\n", title, len(names))
	if len(names) == 0 {
		sb.WriteString("-\n")
		return
	}
	for i, name := range names {
		fmt.Fprintf(sb, "%d. %s\n", i+1, name)
	}
}
