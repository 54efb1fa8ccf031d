package rpc

import (
	"context"
	"errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/xilidan/meetings/services/meetings/entity"
)

const errorDomain = "meetings.v1"

func CodeFor(kind entity.Kind) codes.Code {
	switch kind {
	case entity.KindValidation:
		return codes.InvalidArgument
	case entity.KindNotFound:
		return codes.NotFound
	case entity.KindContentMissing, entity.KindNoActionItems:
		return codes.FailedPrecondition
	case entity.KindServiceUnavailable:
		return codes.Unavailable
	case entity.KindServiceError:
		return codes.Aborted
	default:
		return codes.Internal
	}
}

// ToStatus converts err into a gRPC status error. The kind travels in an
// ErrorInfo reason; meeting, when given, is attached as a Struct detail.
func ToStatus(err error, meeting *entity.Meeting) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) {
		return status.Error(codes.Canceled, err.Error())
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return status.Error(codes.DeadlineExceeded, err.Error())
	}

	kind := entity.KindOf(err)
	st := status.New(CodeFor(kind), entity.Detail(err))

	withInfo, derr := st.WithDetails(&errdetails.ErrorInfo{Reason: kind.String(), Domain: errorDomain})
	if derr != nil {
		return st.Err()
	}
	st = withInfo

	if meeting != nil {
		if m, merr := Encode(meeting); merr == nil {
			if withMeeting, derr := st.WithDetails(m); derr == nil {
				st = withMeeting
			}
		}
	}
	return st.Err()
}

// FromStatus rebuilds the entity error carried by a status error, plus the
// attached meeting if there is one.
func FromStatus(err error) (*entity.Meeting, error) {
	st, ok := status.FromError(err)
	if !ok {
		return nil, err
	}

	// only statuses produced by ToStatus carry a kind; bare transport codes
	// such as Unavailable from a dial failure stay foreign
	kind := entity.KindUnknown
	var meeting *entity.Meeting
	for _, d := range st.Details() {
		switch v := d.(type) {
		case *errdetails.ErrorInfo:
			if v.GetDomain() == errorDomain {
				if k := entity.ParseKind(v.GetReason()); k != entity.KindUnknown {
					kind = k
				}
			}
		case *structpb.Struct:
			var m entity.Meeting
			if Decode(v, &m) == nil {
				meeting = &m
			}
		}
	}

	switch {
	case st.Code() == codes.Canceled:
		return meeting, context.Canceled
	case st.Code() == codes.DeadlineExceeded:
		return meeting, context.DeadlineExceeded
	case kind == entity.KindUnknown:
		// not one of ours, e.g. Unauthenticated from the auth interceptor or a
		// connection failure
		return meeting, err
	}
	return meeting, &entity.Error{Kind: kind, Msg: st.Message()}
}
