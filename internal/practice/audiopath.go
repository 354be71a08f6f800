package practice

import (
	"fmt"
	"time"

	"spellsync/internal/textutil"
)

// AudioDestPath builds the object key for a recorded clip:
// {childId}/{listId}/{wordId}_{unixTimestampMillis}. The millisecond suffix
// keeps repeated recordings of the same word distinct.
func AudioDestPath(childID, listID, wordID string, recordedAt time.Time) string {
	return fmt.Sprintf("%s/%s/%s_%d",
		textutil.SanitizeSegment(childID),
		textutil.SanitizeSegment(listID),
		textutil.SanitizeSegment(wordID),
		recordedAt.UnixMilli())
}
