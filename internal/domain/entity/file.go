package entity

import "time"

// File archivo subido (PDF del documento, anexos).
type File struct {
	ID        string
	Name      string
	Mime      string
	Size      int64
	Path      string // relativo al directorio de uploads
	CreatedAt time.Time
}
