package cataloging

import (
	"fmt"
	"strings"
)

// buildDescriptionPrompt asks for one short description per file, returned as
// a flat JSON object keyed by filename.
func buildDescriptionPrompt(folderContext string, filenames []string) string {
	return fmt.Sprintf(`Context: %s

Analyze these %d images and provide a succinct description for each.

Files: %s

For each image, write ONE short description (10-20 words max) that captures:
- What is shown (subject, scene, action)
- Visual style or notable features
- How it relates to the context

Respond in JSON format:
{
  "filename1.jpg": "description",
  "filename2.png": "description"
}

Use the exact filenames listed above as keys. Be specific but brief. No fluff words.`,
		folderContext,
		len(filenames),
		strings.Join(filenames, ", "),
	)
}
