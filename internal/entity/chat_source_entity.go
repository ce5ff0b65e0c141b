package entity

// ChatSource is a cited document reference returned alongside an assistant
// reply. PresignedUrl may arrive inline with the reply or be resolved lazily
// through the sources endpoint; empty means not resolved yet.
type ChatSource struct {
	Id           string
	Filename     string
	S3Uri        string
	PresignedUrl string
}

func (s *ChatSource) Resolved() bool {
	return s.PresignedUrl != ""
}

func (s *ChatSource) Clone() *ChatSource {
	c := *s
	return &c
}
