package assemble

// Observer receives progress events in document order.
type Observer interface {
	ChapterStarted(chapter, total int, title string, paragraphs int)
	ChapterSkipped(a Artifact, total int)
	ParagraphDone(chapter, paragraph, paragraphs int, reused bool)
	ChapterDone(a Artifact, total int)
}

// NopObserver ignores every event.
type NopObserver struct{}

func (NopObserver) ChapterStarted(int, int, string, int) {}
func (NopObserver) ChapterSkipped(Artifact, int)         {}
func (NopObserver) ParagraphDone(int, int, int, bool)    {}
func (NopObserver) ChapterDone(Artifact, int)            {}
