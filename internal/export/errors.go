package export

import (
	apperrors "github.com/i474232898/weather-odds/pkg/errors"
)

var (
	ErrArtifactNotFound = apperrors.New(apperrors.KindArtifactNotFound, "artifact not found")
	ErrArtifactBusy     = apperrors.New(apperrors.KindArtifactBusy, "artifact is being downloaded")
	ErrSerialization    = apperrors.New(apperrors.KindSerialization, "failed to serialize export")
)
