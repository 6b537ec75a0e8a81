package devserver

import "net/http"

// Route path constants
const (
	// Session
	RouteLogin    = "/api/login/"
	RouteRefresh  = "/api/token/refresh/"
	RouteLogout   = "/api/logout/"
	RouteUserInfo = "/api/user-info/"
	RouteRegister = "/api/register/"
	RouteSMSCode  = "/api/send_sms_code/"

	// Listings
	RouteTodayUpdateCount   = "/api/today_update_count/"
	RouteProjects           = "/api/projects/"
	RouteProject            = "/api/projects/{id}"
	RouteBidSections        = "/api/bid_sections/"
	RouteBids               = "/api/bids/{id}/"
	RouteBidResults         = "/api/bid_results/"
	RouteBidResult          = "/api/bid_results/{id}/"
	RouteCompanySearch      = "/api/company-search"
	RouteCompanyBids        = "/api/company-bids/"
	RouteCompanyAchievement = "/api/company-achievement/{id}/"

	RouteListSimulator = "/api/list-simulator/"
)

// exact anchors a trailing-slash route so the mux does not treat it as a
// subtree.
func exact(path string) string {
	return path + "{$}"
}

func (s *Server) initRoutes() {
	api := s.APIMiddleware()
	authed := append(s.APIMiddleware(), s.RequireAuth)

	s.RegisterRouteFunc("OPTIONS /api/", ChainMiddleware(func(w http.ResponseWriter, r *http.Request) {}, api...))

	s.RegisterRouteFunc("POST "+exact(RouteLogin), ChainMiddleware(s.loginHandler, api...))
	s.RegisterRouteFunc("POST "+exact(RouteRefresh), ChainMiddleware(s.refreshHandler, api...))
	s.RegisterRouteFunc("POST "+exact(RouteLogout), ChainMiddleware(s.logoutHandler, api...))
	s.RegisterRouteFunc("POST "+exact(RouteRegister), ChainMiddleware(s.registerHandler, api...))
	s.RegisterRouteFunc("POST "+exact(RouteSMSCode), ChainMiddleware(s.sendSMSCodeHandler, api...))
	s.RegisterRouteFunc("GET "+exact(RouteUserInfo), ChainMiddleware(s.userInfoHandler, authed...))

	s.RegisterRouteFunc("GET "+exact(RouteTodayUpdateCount), ChainMiddleware(s.todayUpdateCountHandler, api...))
	s.RegisterRouteFunc("GET "+exact(RouteProjects), ChainMiddleware(s.listProjectsHandler, authed...))
	s.RegisterRouteFunc("GET "+RouteProject, ChainMiddleware(s.getProjectHandler, authed...))
	s.RegisterRouteFunc("GET "+exact(RouteBidSections), ChainMiddleware(s.listBidSectionsHandler, authed...))
	s.RegisterRouteFunc("GET "+exact(RouteBids), ChainMiddleware(s.getBidsHandler, authed...))
	s.RegisterRouteFunc("GET "+exact(RouteBidResults), ChainMiddleware(s.listBidResultsHandler, authed...))
	s.RegisterRouteFunc("GET "+exact(RouteBidResult), ChainMiddleware(s.getBidResultHandler, authed...))
	s.RegisterRouteFunc("GET "+RouteCompanySearch, ChainMiddleware(s.companySearchHandler, authed...))
	s.RegisterRouteFunc("GET "+exact(RouteCompanyBids), ChainMiddleware(s.companyBidsHandler, authed...))
	s.RegisterRouteFunc("GET "+exact(RouteCompanyAchievement), ChainMiddleware(s.companyAchievementHandler, authed...))

	s.RegisterRouteFunc("POST "+exact(RouteListSimulator), ChainMiddleware(s.listSimulatorHandler, authed...))
}
