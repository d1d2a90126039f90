package ports

type Policy struct {
	MaxParallel int // series analysed concurrently within one run

	OnSinkError string // "fail", "log"
}

const (
	OnSinkErrorFail = "fail"
	OnSinkErrorLog  = "log"
)
