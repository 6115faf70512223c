package access

// Scheme identifies a backend family. It is a closed set: new backends add a
// constant here and a matching entry in pkg/builder's registry, never an
// open-ended string.
type Scheme string

const (
	SchemeFs      Scheme = "fs"
	SchemeMemory  Scheme = "memory"
	SchemeS3      Scheme = "s3"
	SchemeAzblob  Scheme = "azblob"
	SchemeAzdfs   Scheme = "azdfs"
	SchemeGcs     Scheme = "gcs"
	SchemeHdfs    Scheme = "hdfs"
	SchemeFtp     Scheme = "ftp"
	SchemeHTTP    Scheme = "http"
	SchemeIpmfs   Scheme = "ipmfs"
	SchemeRocksdb Scheme = "rocksdb"
	SchemeRedis   Scheme = "redis"
	SchemeGhac    Scheme = "ghac"
	SchemeObs     Scheme = "obs"
	SchemeOss     Scheme = "oss"
	SchemeCustom  Scheme = "custom"
)

func (s Scheme) String() string {
	return string(s)
}
