package kernel

type JobTitle string

type JobDescription string

type JobRequirement string

type BucketURL string
